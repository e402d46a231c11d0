package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/pepelbot/internal/catalog"
	"github.com/example/pepelbot/internal/registry"
	"github.com/example/pepelbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	fail bool
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.fail {
		return tgbotapi.Message{}, errors.New("bot was blocked by the user")
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) lastText(t *testing.T) string {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("nothing was sent")
	}
	msg, ok := f.sent[len(f.sent)-1].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("last sent item is %T, not a text message", f.sent[len(f.sent)-1])
	}
	return msg.Text
}

type stubStore struct {
	created   []models.Response
	recent    []models.Response
	counts    map[int]int
	all       []models.Response
	createErr error
	queryErr  error
}

func (s *stubStore) Create(_ context.Context, resp *models.Response) error {
	if s.createErr != nil {
		return s.createErr
	}
	resp.ID = int64(len(s.created) + 1)
	s.created = append(s.created, *resp)
	return nil
}

func (s *stubStore) RecentByUser(context.Context, int64, int) ([]models.Response, error) {
	return s.recent, s.queryErr
}

func (s *stubStore) CountsByLevel(context.Context) (map[int]int, error) {
	return s.counts, s.queryErr
}

func (s *stubStore) All(context.Context) ([]models.Response, error) {
	return s.all, s.queryErr
}

type stubBroadcaster struct {
	runs int
}

func (s *stubBroadcaster) RunBroadcast() (int, int) {
	s.runs++
	return 2, 1
}

func newTestBot(store *stubStore) (*Bot, *fakeSender) {
	sender := &fakeSender{}
	b := &Bot{
		api:          sender,
		responses:    store,
		registry:     registry.New(nil),
		config:       &BotConfig{HistoryLimit: 10},
		adminUserIDs: make(map[int64]bool),
	}
	return b, sender
}

func textUpdate(chatID int64, username, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{ID: chatID, UserName: username},
	}}
}

func commandUpdate(chatID int64, command string) tgbotapi.Update {
	u := textUpdate(chatID, "vasya", "/"+command)
	u.Message.Entities = []tgbotapi.MessageEntity{
		{Type: "bot_command", Offset: 0, Length: len(command) + 1},
	}
	return u
}

func TestValidLevelIsRecorded(t *testing.T) {
	for level := 0; level <= 5; level++ {
		store := &stubStore{}
		b, sender := newTestBot(store)

		b.handleUpdate(context.Background(), textUpdate(42, "vasya", string(rune('0'+level))))

		if len(store.created) != 1 {
			t.Fatalf("level %d: %d rows written, want 1", level, len(store.created))
		}
		row := store.created[0]
		if row.Level != level || row.UserID != 42 || row.Username != "vasya" {
			t.Errorf("level %d: recorded %+v", level, row)
		}
		if row.Timestamp == "" {
			t.Errorf("level %d: empty timestamp", level)
		}

		entry, _ := catalog.ByLevel(level)
		if got := sender.lastText(t); got != entry.Response {
			t.Errorf("level %d: reply %q, want %q", level, got, entry.Response)
		}
	}
}

func TestInvalidInputNeverTouchesStore(t *testing.T) {
	for _, input := range []string{"6", "-1", "abc", "", "пять"} {
		store := &stubStore{}
		b, sender := newTestBot(store)

		b.handleUpdate(context.Background(), textUpdate(42, "vasya", input))

		if len(store.created) != 0 {
			t.Errorf("input %q wrote to the store", input)
		}
		if got := sender.lastText(t); got != unrecognizedText {
			t.Errorf("input %q: reply %q, want unrecognized message", input, got)
		}
	}
}

func TestInputIsTrimmedBeforeValidation(t *testing.T) {
	store := &stubStore{}
	b, _ := newTestBot(store)

	b.handleUpdate(context.Background(), textUpdate(42, "vasya", " 4 "))

	if len(store.created) != 1 || store.created[0].Level != 4 {
		t.Fatalf("recorded %+v, want one row with level 4", store.created)
	}
}

func TestMissingUsernameGetsPlaceholder(t *testing.T) {
	store := &stubStore{}
	b, _ := newTestBot(store)

	b.handleUpdate(context.Background(), textUpdate(42, "", "2"))

	if len(store.created) != 1 {
		t.Fatal("no row written")
	}
	if store.created[0].Username != models.DefaultUsername {
		t.Errorf("username = %q, want placeholder", store.created[0].Username)
	}
}

func TestStoreFailureSendsGenericReply(t *testing.T) {
	store := &stubStore{createErr: errors.New("database is locked")}
	b, sender := newTestBot(store)

	b.handleUpdate(context.Background(), textUpdate(42, "vasya", "3"))

	got := sender.lastText(t)
	if got != storageFailText {
		t.Errorf("reply %q, want generic failure message", got)
	}
	if strings.Contains(got, "locked") {
		t.Error("internal error leaked to the user")
	}
}

func TestStartRegistersAndSendsKeyboard(t *testing.T) {
	b, sender := newTestBot(&stubStore{})

	b.handleUpdate(context.Background(), commandUpdate(42, "start"))

	if b.registry.Len() != 1 {
		t.Errorf("registry has %d users, want 1", b.registry.Len())
	}
	msg, ok := sender.sent[len(sender.sent)-1].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent %T, want MessageConfig", sender.sent[len(sender.sent)-1])
	}
	if msg.Text != catalog.Greeting() {
		t.Errorf("greeting text = %q", msg.Text)
	}
	keyboard, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	if !ok {
		t.Fatalf("reply markup is %T, want ReplyKeyboardMarkup", msg.ReplyMarkup)
	}
	if !keyboard.OneTimeKeyboard || !keyboard.ResizeKeyboard {
		t.Error("keyboard flags not set")
	}
	if len(keyboard.Keyboard) != 2 {
		t.Errorf("keyboard has %d rows, want 2", len(keyboard.Keyboard))
	}
}

func TestAnyMessageRegistersSender(t *testing.T) {
	b, _ := newTestBot(&stubStore{})

	b.handleUpdate(context.Background(), textUpdate(7, "vasya", "whatever"))

	all := b.registry.All()
	if len(all) != 1 || all[0] != 7 {
		t.Errorf("registry = %v, want [7]", all)
	}
}

func TestReportEmptyHistory(t *testing.T) {
	b, sender := newTestBot(&stubStore{})

	b.handleUpdate(context.Background(), commandUpdate(42, "report"))

	if got := sender.lastText(t); got != noPersonalData {
		t.Errorf("reply %q, want no-data message", got)
	}
}

func TestReportRendersHistory(t *testing.T) {
	store := &stubStore{recent: []models.Response{
		{Level: 5, Timestamp: "2026-08-31T12:00:00Z"},
		{Level: 1, Timestamp: "2026-08-24T12:00:00Z"},
	}}
	b, sender := newTestBot(store)

	b.handleUpdate(context.Background(), commandUpdate(42, "report"))

	got := sender.lastText(t)
	if !strings.Contains(got, "Твой недавний путь") {
		t.Errorf("missing header: %q", got)
	}
	if !strings.Contains(got, "31.08.2026 12:00 — 5 ⚰️") {
		t.Errorf("missing history line: %q", got)
	}
}

func TestTeamReportEmpty(t *testing.T) {
	b, sender := newTestBot(&stubStore{counts: map[int]int{}})

	b.handleUpdate(context.Background(), commandUpdate(42, "team_report"))

	if got := sender.lastText(t); got != noTeamData {
		t.Errorf("reply %q, want no-team-data message", got)
	}
}

func TestTeamReportRendersDistribution(t *testing.T) {
	b, sender := newTestBot(&stubStore{counts: map[int]int{0: 2, 1: 1, 5: 1}})

	b.handleUpdate(context.Background(), commandUpdate(42, "team_report"))

	got := sender.lastText(t)
	for _, want := range []string{"Уровень 0: 2 ответов (50.0%)", "Уровень 1: 1 ответов (25.0%)", "Уровень 5: 1 ответов (25.0%)"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestQueryFailureSendsGenericReply(t *testing.T) {
	store := &stubStore{queryErr: errors.New("disk I/O error")}
	b, sender := newTestBot(store)

	b.handleUpdate(context.Background(), commandUpdate(42, "report"))
	if got := sender.lastText(t); got != storageFailText {
		t.Errorf("reply %q, want generic failure message", got)
	}

	b.handleUpdate(context.Background(), commandUpdate(42, "team_report"))
	if got := sender.lastText(t); got != storageFailText {
		t.Errorf("reply %q, want generic failure message", got)
	}
}

func TestUnknownCommand(t *testing.T) {
	b, sender := newTestBot(&stubStore{})

	b.handleUpdate(context.Background(), commandUpdate(42, "fireworks"))

	if got := sender.lastText(t); got != unknownCommand {
		t.Errorf("reply %q, want unknown-command message", got)
	}
}

func TestExportRequiresAdmin(t *testing.T) {
	b, sender := newTestBot(&stubStore{all: []models.Response{{ID: 1, Level: 3, Timestamp: "2026-08-31T12:00:00Z"}}})

	b.handleUpdate(context.Background(), commandUpdate(42, "export"))
	if got := sender.lastText(t); got != adminOnlyText {
		t.Errorf("reply %q, want admin-only message", got)
	}

	b.adminUserIDs[42] = true
	b.handleUpdate(context.Background(), commandUpdate(42, "export"))
	doc, ok := sender.sent[len(sender.sent)-1].(tgbotapi.DocumentConfig)
	if !ok {
		t.Fatalf("sent %T, want DocumentConfig", sender.sent[len(sender.sent)-1])
	}
	file, ok := doc.File.(tgbotapi.FileBytes)
	if !ok || file.Name != "responses.xlsx" || len(file.Bytes) == 0 {
		t.Errorf("unexpected export document: %+v", doc.File)
	}
}

func TestManualBroadcastCommand(t *testing.T) {
	b, sender := newTestBot(&stubStore{})
	br := &stubBroadcaster{}
	b.broadcaster = br
	b.adminUserIDs[42] = true

	b.handleUpdate(context.Background(), commandUpdate(42, "broadcast"))

	if br.runs != 1 {
		t.Errorf("broadcast ran %d times, want 1", br.runs)
	}
	got := sender.lastText(t)
	if !strings.Contains(got, "2 отправлено") || !strings.Contains(got, "1 не дошло") {
		t.Errorf("summary %q", got)
	}
}

func TestSendCheckInPropagatesFailure(t *testing.T) {
	b, sender := newTestBot(&stubStore{})
	sender.fail = true

	if err := b.SendCheckIn(42); err == nil {
		t.Fatal("SendCheckIn should surface the delivery failure")
	}
}

func TestSendCheckInUsesPromptAndKeyboard(t *testing.T) {
	b, sender := newTestBot(&stubStore{})

	if err := b.SendCheckIn(42); err != nil {
		t.Fatalf("SendCheckIn: %v", err)
	}
	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent %T, want MessageConfig", sender.sent[0])
	}
	if msg.Text != catalog.Prompt() {
		t.Errorf("prompt text = %q", msg.Text)
	}
	if _, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup); !ok {
		t.Errorf("reply markup is %T, want keyboard", msg.ReplyMarkup)
	}
}
