package template

import (
	"errors"
	"testing"

	"github.com/shandysiswandi/emunotify/internal/notification/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_EveryTypeRegistered(t *testing.T) {
	e := New()

	for _, nt := range entity.NotificationTypes() {
		cat, err := e.Category(nt)
		require.NoError(t, err, nt)
		assert.NotEmpty(t, cat, nt)

		out, err := e.Render(nt, Context{})
		require.NoError(t, err, nt)
		assert.NotEmpty(t, out.Title, nt)
		assert.NotEmpty(t, out.Message, nt)
		assert.NotNil(t, out.Metadata, nt)
	}

	assert.Len(t, e.Types(), len(entity.NotificationTypes()))
}

func TestEngine_UnregisteredType(t *testing.T) {
	e := New()

	_, err := e.Render("NOPE", Context{})
	assert.True(t, errors.Is(err, entity.ErrUnknownNotificationType))

	_, err = e.Category("NOPE")
	assert.True(t, errors.Is(err, entity.ErrUnknownNotificationType))
}

func TestEngine_ListingApproved(t *testing.T) {
	e := New()

	out, err := e.Render(entity.TypeListingApproved, Context{
		ListingID:  "L",
		GameTitle:  "Zelda",
		DeviceName: "Retroid Pocket 4",
		ActorName:  "mod",
	})
	require.NoError(t, err)
	assert.Equal(t, "/listings/L", out.ActionURL)
	assert.Equal(t, "Your listing for Zelda on Retroid Pocket 4 has been approved", out.Message)
	assert.Equal(t, "L", out.Metadata.GetString("listing_id"))

	cat, err := e.Category(entity.TypeListingApproved)
	require.NoError(t, err)
	assert.Equal(t, entity.CategoryModeration, cat)
}

func TestEngine_DegradesOnMissingContext(t *testing.T) {
	e := New()

	tests := []struct {
		name string
		typ  entity.NotificationType
		ctx  Context
		want string
	}{
		{name: "comment without actor", typ: entity.TypeListingComment, ctx: Context{ListingID: "1"}, want: "Someone commented on your listing"},
		{name: "approved without game", typ: entity.TypeListingApproved, ctx: Context{ListingID: "1"}, want: "Your listing for your game has been approved"},
		{name: "role without old role", typ: entity.TypeRoleChanged, ctx: Context{NewRole: "MODERATOR"}, want: "Your role is now MODERATOR"},
		{name: "digest without count", typ: entity.TypeWeeklyDigest, ctx: Context{}, want: "Here is what happened on EmuReady this week"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := e.Render(tt.typ, tt.ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Message)
		})
	}
}

func TestEngine_CommentURLAndTruncation(t *testing.T) {
	e := New()

	long := ""
	for range 200 {
		long += "a"
	}

	out, err := e.Render(entity.TypeCommentReply, Context{ListingID: "7", CommentID: "c9", CommentText: long})
	require.NoError(t, err)
	assert.Equal(t, "/listings/7#comment-c9", out.ActionURL)
	assert.Contains(t, out.Message, "…")
	assert.Less(t, len([]rune(out.Message)), 200)
}

func TestEngine_ExtraMergedIntoMetadata(t *testing.T) {
	e := New()

	out, err := e.Render(entity.TypeGameAdded, Context{GameID: "g1", Extra: map[string]any{"game_id": "other", "source": "igdb"}})
	require.NoError(t, err)
	assert.Equal(t, "g1", out.Metadata.GetString("game_id"))
	assert.Equal(t, "igdb", out.Metadata.GetString("source"))
	assert.Equal(t, "/games/g1", out.ActionURL)
}
