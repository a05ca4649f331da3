package schema

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRenamesAndDropsUnlisted(t *testing.T) {
	r := NewRegistry(nil)

	rec := Record{
		"id":              "s1",
		"staffName":       "Maria Souza",
		"requiresReturn":  true,
		"legacyField":     "should vanish",
		"uiSelectionMode": "multi",
	}
	payload, err := r.Encode(context.Background(), "staffVisits", rec)
	require.NoError(t, err)

	assert.Equal(t, "Maria Souza", payload["staff_name"])
	assert.Equal(t, true, payload["requires_return"])
	assert.NotContains(t, payload, "legacy_field")
	assert.NotContains(t, payload, "ui_selection_mode")
}

func TestEncodeNumericCoercion(t *testing.T) {
	r := NewRegistry(nil)
	ctx := context.Background()

	// strings parse, floats truncate
	payload, err := r.Encode(ctx, "smallGroups", Record{
		"id": "g1", "participantsCount": "12", "updatedAt": float64(1700000000123),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), payload["participants_count"])
	assert.Equal(t, int64(1700000000123), payload["updated_at"])

	// empty optional numeric is omitted, not zeroed
	payload, err = r.Encode(ctx, "users", Record{"id": "u1", "updatedAt": ""})
	require.NoError(t, err)
	assert.NotContains(t, payload, "updated_at")

	// invalid optional numeric is omitted too
	payload, err = r.Encode(ctx, "users", Record{"id": "u1", "updatedAt": "soon"})
	require.NoError(t, err)
	assert.NotContains(t, payload, "updated_at")

	// required numeric must parse
	_, err = r.Encode(ctx, "smallGroups", Record{"id": "g1", "participantsCount": "many"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "participants_count", verr.Field)
}

func TestEncodeForeignKeys(t *testing.T) {
	r := NewRegistry(nil)
	ctx := context.Background()

	// empty reference becomes NULL
	payload, err := r.Encode(ctx, "bibleStudies", Record{"id": "b1", "userId": ""})
	require.NoError(t, err)
	v, present := payload["user_id"]
	require.True(t, present)
	assert.Nil(t, v)

	// malformed UUID is nulled on a tolerant collection
	payload, err = r.Encode(ctx, "bibleStudies", Record{"id": "b1", "userId": "not-a-uuid"})
	require.NoError(t, err)
	assert.Nil(t, payload["user_id"])

	// well-formed UUID passes through
	payload, err = r.Encode(ctx, "bibleStudies", Record{
		"id": "b1", "userId": "A6E0E5B0-9C1D-4F2A-8B3C-1D2E3F4A5B6C",
	})
	require.NoError(t, err)
	assert.Equal(t, "A6E0E5B0-9C1D-4F2A-8B3C-1D2E3F4A5B6C", payload["user_id"])

	// strict collection rejects a malformed reference outright
	_, err = r.Encode(ctx, "proGroupMembers", Record{
		"id": "m1", "groupId": "PG-12", "staffId": "4411",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "group_id", verr.Field)

	// and a missing required reference
	_, err = r.Encode(ctx, "proGroupMembers", Record{"id": "m1", "staffId": "4411"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "group_id", verr.Field)

	// digits-only ids satisfy the numeric format
	payload, err = r.Encode(ctx, "proGroupMembers", Record{
		"id": "m1", "groupId": "12", "staffId": "4411",
	})
	require.NoError(t, err)
	assert.Equal(t, "12", payload["group_id"])
	assert.Equal(t, "4411", payload["staff_id"])
}

func TestEncodeUnknownCollection(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Encode(context.Background(), "ghosts", Record{"id": "x"})
	require.Error(t, err)
}

func TestEncodeSingletonInjectsRowID(t *testing.T) {
	calls := 0
	r := NewRegistry(func(ctx context.Context, table string) (string, error) {
		calls++
		require.Equal(t, "app_config", table)
		return "cfg-row-1", nil
	})
	ctx := context.Background()

	payload, err := r.Encode(ctx, "config", Record{"muralText": "Bem-vindos", "id": "stale"})
	require.NoError(t, err)
	assert.Equal(t, "cfg-row-1", payload["id"])

	// second encode hits the cache, not the resolver
	_, err = r.Encode(ctx, "config", Record{"muralText": "changed"})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestEncodeSingletonEmptyTable(t *testing.T) {
	r := NewRegistry(func(ctx context.Context, table string) (string, error) {
		return "", nil
	})
	payload, err := r.Encode(context.Background(), "config", Record{"muralText": "first write", "id": "client-id"})
	require.NoError(t, err)
	_, present := payload["id"]
	assert.False(t, present, "first write must let the store assign the row id")
}

func TestEncodeSingletonResolverError(t *testing.T) {
	r := NewRegistry(func(ctx context.Context, table string) (string, error) {
		return "", errors.New("connection refused")
	})
	_, err := r.Encode(context.Background(), "config", Record{"muralText": "x"})
	require.Error(t, err)
}

func TestDecodeInvertsEncode(t *testing.T) {
	r := NewRegistry(nil)
	rec := Record{
		"id":                "v1",
		"pgName":            "PG Esperança",
		"leaderName":        "João",
		"requestNotes":      "visita semanal",
		"createdAt":         int64(1700000000000),
		"preferredChaplainId": nil,
	}
	payload, err := r.Encode(context.Background(), "visitRequests", rec)
	require.NoError(t, err)
	assert.Equal(t, rec, r.Decode(payload))
}

func TestKeyConversion(t *testing.T) {
	assert.Equal(t, "leader_phone", ToSnake("leaderPhone"))
	assert.Equal(t, "header_line1_x", ToSnake("headerLine1X"))
	assert.Equal(t, "pg_name", ToSnake("PG_NAME"))
	assert.Equal(t, "leaderPhone", ToCamel("leader_phone"))
	assert.Equal(t, "date", ToCamel("date"))
}
