package memberships

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/julianvossen/gatherly-backend/pkg/db/models"
	"github.com/julianvossen/gatherly-backend/pkg/enums"
	"github.com/julianvossen/gatherly-backend/pkg/pagination"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			nickname TEXT NOT NULL,
			phone TEXT,
			refund_account TEXT,
			is_active INTEGER NOT NULL DEFAULT 1,
			last_login_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		)
	`).Error)

	require.NoError(t, db.Exec(`
		CREATE TABLE IF NOT EXISTS gatherings (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			gathering_date DATETIME NOT NULL,
			min_users INTEGER NOT NULL,
			max_users INTEGER NOT NULL,
			fee_cents INTEGER NOT NULL DEFAULT 0,
			organizer_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'recruiting',
			latitude REAL,
			longitude REAL,
			address TEXT,
			place_name TEXT,
			created_at DATETIME,
			updated_at DATETIME
		)
	`).Error)

	require.NoError(t, db.Exec(`
		CREATE TABLE IF NOT EXISTS memberships (
			id TEXT PRIMARY KEY,
			gathering_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			role TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		)
	`).Error)

	return db
}

func createUser(t *testing.T, db *gorm.DB, nickname string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        nickname + "-" + uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Nickname:     nickname,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createGathering(t *testing.T, db *gorm.DB, organizerID uuid.UUID, title string) *models.Gathering {
	t.Helper()
	gathering := &models.Gathering{
		ID:            uuid.New(),
		Title:         title,
		GatheringDate: time.Now().Add(24 * time.Hour),
		MinUsers:      2,
		MaxUsers:      6,
		FeeCents:      1000,
		OrganizerID:   organizerID,
		Status:        enums.GatheringStatusRecruiting,
	}
	require.NoError(t, db.Create(gathering).Error)
	return gathering
}

func createMembership(t *testing.T, db *gorm.DB, gatheringID, userID uuid.UUID, role enums.MemberRole, status enums.MembershipStatus, createdAt time.Time) *models.Membership {
	t.Helper()
	membership := &models.Membership{
		ID:          uuid.New(),
		GatheringID: gatheringID,
		UserID:      userID,
		Role:        role,
		Status:      status,
	}
	require.NoError(t, db.Create(membership).Error)
	require.NoError(t, db.Model(&models.Membership{}).
		Where("id = ?", membership.ID).
		UpdateColumn("created_at", createdAt).Error)
	membership.CreatedAt = createdAt
	return membership
}

func TestListUserGatherings(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	user := createUser(t, db, "rider")
	organizer := createUser(t, db, "host")
	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)

	first := createGathering(t, db, organizer.ID, "morning hike")
	second := createGathering(t, db, organizer.ID, "evening ride")
	createMembership(t, db, first.ID, user.ID, enums.MemberRoleParticipant, enums.MembershipStatusApproved, base)
	createMembership(t, db, second.ID, user.ID, enums.MemberRoleParticipant, enums.MembershipStatusPending, base.Add(time.Minute))

	rows, next, err := repo.ListUserGatherings(context.Background(), ListUserGatheringsParams{UserID: user.ID})
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, rows, 2)

	// Newest membership first, carrying the gathering metadata.
	assert.Equal(t, "evening ride", rows[0].Title)
	assert.Equal(t, enums.MembershipStatusPending, rows[0].Status)
	assert.Equal(t, "morning hike", rows[1].Title)
	assert.Equal(t, int64(1000), rows[1].FeeCents)
	assert.Equal(t, enums.GatheringStatusRecruiting, rows[1].GatheringStatus)
}

func TestListUserGatheringsStatusFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	user := createUser(t, db, "rider")
	organizer := createUser(t, db, "host")
	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)

	approved := createGathering(t, db, organizer.ID, "approved one")
	pending := createGathering(t, db, organizer.ID, "pending one")
	createMembership(t, db, approved.ID, user.ID, enums.MemberRoleParticipant, enums.MembershipStatusApproved, base)
	createMembership(t, db, pending.ID, user.ID, enums.MemberRoleParticipant, enums.MembershipStatusPending, base.Add(time.Minute))

	status := enums.MembershipStatusApproved
	rows, _, err := repo.ListUserGatherings(context.Background(), ListUserGatheringsParams{UserID: user.ID, Status: &status})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "approved one", rows[0].Title)
}

func TestListUserGatheringsPagination(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	user := createUser(t, db, "rider")
	organizer := createUser(t, db, "host")
	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)

	for i := 0; i < 3; i++ {
		g := createGathering(t, db, organizer.ID, "gathering")
		createMembership(t, db, g.ID, user.ID, enums.MemberRoleParticipant, enums.MembershipStatusApproved, base.Add(time.Duration(i)*time.Minute))
	}

	firstPage, next, err := repo.ListUserGatherings(context.Background(), ListUserGatheringsParams{UserID: user.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, firstPage, 2)
	require.NotNil(t, next)

	secondPage, last, err := repo.ListUserGatherings(context.Background(), ListUserGatheringsParams{
		UserID: user.ID,
		Limit:  2,
		Cursor: &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID},
	})
	require.NoError(t, err)
	require.Len(t, secondPage, 1)
	assert.Nil(t, last)

	seen := map[uuid.UUID]bool{}
	for _, row := range append(firstPage, secondPage...) {
		assert.False(t, seen[row.MembershipID], "membership repeated across pages")
		seen[row.MembershipID] = true
	}
}

func TestListGatheringMembers(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	organizer := createUser(t, db, "host")
	member := createUser(t, db, "guest")
	gathering := createGathering(t, db, organizer.ID, "picnic")
	base := time.Now().Add(-time.Hour).UTC().Truncate(time.Second)

	createMembership(t, db, gathering.ID, organizer.ID, enums.MemberRoleOrganizer, enums.MembershipStatusApproved, base)
	createMembership(t, db, gathering.ID, member.ID, enums.MemberRoleParticipant, enums.MembershipStatusPending, base.Add(time.Minute))

	roster, err := repo.ListGatheringMembers(context.Background(), gathering.ID)
	require.NoError(t, err)
	require.Len(t, roster, 2)

	assert.Equal(t, "host", roster[0].Nickname)
	assert.Equal(t, enums.MemberRoleOrganizer, roster[0].Role)
	assert.Equal(t, "guest", roster[1].Nickname)
	assert.Equal(t, enums.MembershipStatusPending, roster[1].Status)
}

func TestIsOrganizer(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	organizer := createUser(t, db, "host")
	member := createUser(t, db, "guest")
	gathering := createGathering(t, db, organizer.ID, "picnic")
	now := time.Now().UTC()

	createMembership(t, db, gathering.ID, organizer.ID, enums.MemberRoleOrganizer, enums.MembershipStatusApproved, now)
	createMembership(t, db, gathering.ID, member.ID, enums.MemberRoleParticipant, enums.MembershipStatusApproved, now)

	ok, err := repo.IsOrganizer(context.Background(), organizer.ID, gathering.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsOrganizer(context.Background(), member.ID, gathering.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
