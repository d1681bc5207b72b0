package bot

import (
	"testing"

	"partyfinder/internal/domain"
	"partyfinder/internal/telegram"

	"github.com/stretchr/testify/require"
)

func TestToMarkup(t *testing.T) {
	require.Nil(t, toMarkup(domain.Screen{}))

	screen := domain.Screen{
		Buttons: [][]domain.Button{
			{{Label: "A", Action: "a"}, {Label: "B", Action: "b"}},
			{{Label: "C", Action: "c"}},
		},
	}
	markup := toMarkup(screen)
	require.Len(t, markup.InlineKeyboard, 2)
	require.Len(t, markup.InlineKeyboard[0], 2)
	require.Equal(t, "a", markup.InlineKeyboard[0][0].CallbackData)
	require.Equal(t, "C", markup.InlineKeyboard[1][0].Text)
}

func TestUpdateUserID(t *testing.T) {
	require.Equal(t, int64(0), updateUserID(telegram.Update{}))

	u := telegram.Update{Message: &telegram.Message{From: &telegram.User{ID: 7}}}
	require.Equal(t, int64(7), updateUserID(u))

	u = telegram.Update{CallbackQuery: &telegram.CallbackQuery{From: telegram.User{ID: 9}}}
	require.Equal(t, int64(9), updateUserID(u))
}
