package store

import (
	"testing"

	"github.com/pillwise/pillwise/internal/config"
	"github.com/pillwise/pillwise/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	cfg, err := config.Load("", t.TempDir())
	require.NoError(t, err)

	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestKVRoundTrip(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.SetKV("greeting", []byte("hello")))

	val, err := s.GetKV("greeting")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), val)

	ok, err := s.HasKV("greeting")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.DeleteKV("greeting"))
	ok, err = s.HasKV("greeting")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting again is a no-op.
	require.NoError(t, s.DeleteKV("greeting"))
}

func TestJSONSnapshot(t *testing.T) {
	s := setupTestStore(t)

	patients := []model.Patient{{ID: "p1", Name: "Rajesh Kumar", AdherenceScore: 92}}
	require.NoError(t, s.SetJSON(KeyPatients, patients))

	var loaded []model.Patient
	ok, err := s.GetJSON(KeyPatients, &loaded)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Rajesh Kumar", loaded[0].Name)
}

func TestJSONMissingKey(t *testing.T) {
	s := setupTestStore(t)

	var out []model.Patient
	ok, err := s.GetJSON(KeyPatients, &out)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, out)
}

func TestJSONCorruptValue(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.SetKV(KeyCaretakers, []byte("{not json")))

	var out []model.Caretaker
	ok, err := s.GetJSON(KeyCaretakers, &out)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSettingsHelpers(t *testing.T) {
	s := setupTestStore(t)

	assert.True(t, s.GetBool(KeyVoiceEnabled, true))
	require.NoError(t, s.SetJSON(KeyVoiceEnabled, false))
	assert.False(t, s.GetBool(KeyVoiceEnabled, true))

	assert.Equal(t, "English", s.GetString(KeyAppLanguage, "English"))
	require.NoError(t, s.SetJSON(KeyAppLanguage, "Marathi"))
	assert.Equal(t, "Marathi", s.GetString(KeyAppLanguage, "English"))
}

func TestConversations(t *testing.T) {
	s := setupTestStore(t)

	conv := &Conversation{UserID: "u1"}
	require.NoError(t, s.CreateConversation(conv))
	require.NotEmpty(t, conv.ID)
	assert.Equal(t, "New Conversation", conv.Title)

	require.NoError(t, s.CreateMessage(&Message{ConversationID: conv.ID, Role: "user", Content: "hi"}))
	require.NoError(t, s.CreateMessage(&Message{ConversationID: conv.ID, Role: "assistant", Content: "Hello!"}))

	msgs, err := s.GetMessages(conv.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)

	count, err := s.GetMessageCount(conv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	convs, err := s.ListConversations("u1", 10, 0)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, 2, convs[0].MessageCount)

	convs, err = s.ListConversations("u2", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, convs)
}
