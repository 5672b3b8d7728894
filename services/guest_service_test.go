package services

import (
	"context"
	"testing"

	"hotel-sync/channel"
	"hotel-sync/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+66812345678", NormalizePhone(" +66 (81) 234-5678 "))
	assert.Equal(t, "", NormalizePhone("  "))
	assert.Equal(t, "+66812345678", NormalizePhone("+66\n81\u00a0234\r\n5678\t"))
}

func TestGuestResolve_UnknownGuestSingleton(t *testing.T) {
	db := newTestDB(t)
	svc := NewGuestService(db, nil)
	ctx := context.Background()

	inputs := []*channel.GuestIdentity{
		nil,
		{},
		{FirstName: "Unknown", LastName: "Guest"},
		{FirstName: "Guest"},
		{FirstName: "  "},
		nil, nil, nil, nil, nil,
	}
	var first uint
	for i, g := range inputs {
		id, err := svc.Resolve(ctx, nil, g)
		require.NoError(t, err)
		if i == 0 {
			first = id
		}
		assert.Equal(t, first, id)
	}

	var n int64
	require.NoError(t, db.Model(&models.Guest{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	var g models.Guest
	require.NoError(t, db.First(&g, first).Error)
	assert.True(t, g.IsPlaceholder())
	assert.Equal(t, "Unknown Guest", g.FullName())
}

func TestGuestResolve_MatchesByEmailCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	svc := NewGuestService(db, nil)
	ctx := context.Background()

	id1, err := svc.Resolve(ctx, nil, &channel.GuestIdentity{FirstName: "A", LastName: "B", Email: "A@B.com"})
	require.NoError(t, err)
	id2, err := svc.Resolve(ctx, nil, &channel.GuestIdentity{FirstName: "A", Email: "a@b.COM"})
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestGuestResolve_MatchesByNormalizedPhone(t *testing.T) {
	db := newTestDB(t)
	svc := NewGuestService(db, nil)
	ctx := context.Background()

	id1, err := svc.Resolve(ctx, nil, &channel.GuestIdentity{FirstName: "Somchai", Phone: "081-234-5678"})
	require.NoError(t, err)
	id2, err := svc.Resolve(ctx, nil, &channel.GuestIdentity{FirstName: "Somchai", Phone: "(081) 234 5678"})
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestGuestResolve_MergeIsNonDestructive(t *testing.T) {
	db := newTestDB(t)
	svc := NewGuestService(db, nil)
	ctx := context.Background()

	id, err := svc.Resolve(ctx, nil, &channel.GuestIdentity{FirstName: "Jo", Phone: "0812345678"})
	require.NoError(t, err)

	// Phone match fills the empty email and the longer name.
	got, err := svc.Resolve(ctx, nil, &channel.GuestIdentity{FirstName: "Joanna", LastName: "Smith", Phone: "081 234 5678", Email: "jo@example.com"})
	require.NoError(t, err)
	assert.Equal(t, id, got)

	g, err := svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Joanna Smith", g.FullName())
	require.NotNil(t, g.Email)
	assert.Equal(t, "jo@example.com", *g.Email)
	require.NotNil(t, g.Phone)
	assert.Equal(t, "0812345678", *g.Phone)

	// Email match with a different phone and a shorter name changes nothing.
	got, err = svc.Resolve(ctx, nil, &channel.GuestIdentity{FirstName: "J", Email: "jo@example.com", Phone: "0999999999"})
	require.NoError(t, err)
	assert.Equal(t, id, got)

	g, err = svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Joanna Smith", g.FullName())
	assert.Equal(t, "0812345678", *g.Phone)
	assert.Equal(t, "jo@example.com", *g.Email)
}

func TestGuestResolve_EqualLengthNameKept(t *testing.T) {
	db := newTestDB(t)
	svc := NewGuestService(db, nil)
	ctx := context.Background()

	id, err := svc.Resolve(ctx, nil, &channel.GuestIdentity{FirstName: "Anna", Email: "anna@example.com"})
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, nil, &channel.GuestIdentity{FirstName: "Hana", Email: "anna@example.com"})
	require.NoError(t, err)

	g, err := svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Anna", g.FirstName)
}

func TestGuestResolve_CreatesNewGuest(t *testing.T) {
	db := newTestDB(t)
	svc := NewGuestService(db, nil)
	ctx := context.Background()

	a, err := svc.Resolve(ctx, nil, &channel.GuestIdentity{FirstName: "A", LastName: "B", Email: "a@b.com", ExternalID: "g-1"})
	require.NoError(t, err)
	b, err := svc.Resolve(ctx, nil, &channel.GuestIdentity{FirstName: "C", Email: "c@d.com"})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	g, err := svc.GetByID(ctx, a)
	require.NoError(t, err)
	require.NotNil(t, g.ExternalGuestID)
	assert.Equal(t, "g-1", *g.ExternalGuestID)
	assert.False(t, g.IsPlaceholder())
}

func TestGuestGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := NewGuestService(db, nil).GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}
