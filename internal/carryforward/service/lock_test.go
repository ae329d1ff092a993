package service

import (
	"testing"

	"github.com/railzwaylabs/clubsettle/internal/calendar"
	settlementdomain "github.com/railzwaylabs/clubsettle/internal/settlement/domain"
	"github.com/railzwaylabs/clubsettle/pkg/db"
	"github.com/stretchr/testify/assert"
)

func TestCloseLockIsSharedByVersionsOfOneWeek(t *testing.T) {
	week := calendar.MustParse("2024-03-04")
	v1 := &settlementdomain.Settlement{ID: 10, TenantID: 1, ClubID: 100, WeekStart: week, Version: 1, Status: settlementdomain.StatusFinal}
	v2 := &settlementdomain.Settlement{ID: 11, TenantID: 1, ClubID: 100, WeekStart: week, Version: 2, Status: settlementdomain.StatusDraft}

	key := db.AdvisoryKey(closeLockParts(v1)...)
	assert.Equal(t, key, db.AdvisoryKey(closeLockParts(v2)...))

	nextWeek := *v2
	nextWeek.WeekStart = week.NextWeek()
	assert.NotEqual(t, key, db.AdvisoryKey(closeLockParts(&nextWeek)...))

	otherClub := *v2
	otherClub.ClubID = 101
	assert.NotEqual(t, key, db.AdvisoryKey(closeLockParts(&otherClub)...))

	otherTenant := *v2
	otherTenant.TenantID = 2
	assert.NotEqual(t, key, db.AdvisoryKey(closeLockParts(&otherTenant)...))
}
