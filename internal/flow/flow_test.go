package flow

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"livereport-bot/internal/convstate"
	"livereport-bot/internal/model"
	"livereport-bot/internal/ocr"
)

type fakeUsers struct {
	byTelegramID map[int64]*model.User
	emailsTaken  map[string]bool
	nextID       int64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byTelegramID: make(map[int64]*model.User),
		emailsTaken:  make(map[string]bool),
		nextID:       1,
	}
}

func (f *fakeUsers) ByTelegramID(_ context.Context, telegramID int64) (*model.User, error) {
	u, ok := f.byTelegramID[telegramID]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) ByID(_ context.Context, id int64) (*model.User, error) {
	for _, u := range f.byTelegramID {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) Create(_ context.Context, telegramID int64, username string) (*model.User, error) {
	u := &model.User{
		ID:                f.nextID,
		TelegramUserID:    telegramID,
		Username:          username,
		RegistrationStage: model.StageName,
	}
	f.nextID++
	f.byTelegramID[telegramID] = u
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) SetFullName(_ context.Context, telegramID int64, fullName, username string) error {
	u := f.byTelegramID[telegramID]
	u.FullName = sql.NullString{String: fullName, Valid: true}
	u.Username = username
	u.RegistrationStage = model.StageEmail
	return nil
}

func (f *fakeUsers) EmailInUse(_ context.Context, email string, _ int64) (bool, error) {
	return f.emailsTaken[strings.ToLower(email)], nil
}

func (f *fakeUsers) SetEmail(_ context.Context, telegramID int64, email string) error {
	u := f.byTelegramID[telegramID]
	u.Email = sql.NullString{String: email, Valid: true}
	u.RegistrationStage = model.StagePassword
	return nil
}

func (f *fakeUsers) SetPassword(_ context.Context, telegramID int64, hash string) error {
	u := f.byTelegramID[telegramID]
	u.PasswordHash = sql.NullString{String: hash, Valid: true}
	u.RegistrationStage = model.StageComplete
	return nil
}

func (f *fakeUsers) SetApproval(_ context.Context, telegramID int64, approved bool) (*model.User, error) {
	u := f.byTelegramID[telegramID]
	u.IsApproved = approved
	if approved {
		u.IsActive = true
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) SetActive(_ context.Context, telegramID int64, active bool) (*model.User, error) {
	u := f.byTelegramID[telegramID]
	u.IsActive = active
	cp := *u
	return &cp, nil
}

type fakeReports struct {
	created []*model.Report
	failing bool
	nextID  int64
}

func (f *fakeReports) Create(_ context.Context, r *model.Report) (*model.Report, error) {
	if f.failing {
		return nil, errors.New("insert failed")
	}
	f.nextID++
	cp := *r
	cp.ID = f.nextID
	cp.Status = model.ReportPending
	cp.CreatedAt = time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC)
	f.created = append(f.created, &cp)
	return &cp, nil
}

func (f *fakeReports) ByID(_ context.Context, id int64) (*model.Report, error) {
	for _, r := range f.created {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeReports) SetStatus(_ context.Context, id int64, status model.ReportStatus, notes string) (*model.Report, error) {
	for _, r := range f.created {
		if r.ID == id {
			r.Status = status
			if notes != "" {
				r.Notes = sql.NullString{String: notes, Valid: true}
			}
			return r, nil
		}
	}
	return nil, errors.New("not found")
}

type fakeMedia struct {
	url     string
	err     error
	partial bool
}

func (f *fakeMedia) Fetch(_ context.Context, _, destPath string) (string, error) {
	if f.partial {
		// Telegram downloads create the file before copying, so an
		// aborted transfer still leaves bytes on disk.
		if werr := os.WriteFile(destPath, []byte("partial"), 0o600); werr != nil {
			return "", werr
		}
	}
	return f.url, f.err
}

type fakeOCR struct {
	texts []string
	errs  []error
	calls int
}

func (f *fakeOCR) Extract(_ context.Context, _ ocr.Request) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.texts) {
		return f.texts[i], nil
	}
	return "", errors.New("unexpected call")
}

type fakeNotifier struct {
	sent map[int64][]string
}

func (f *fakeNotifier) Send(_ context.Context, recipientID int64, text string) error {
	if f.sent == nil {
		f.sent = make(map[int64][]string)
	}
	f.sent[recipientID] = append(f.sent[recipientID], text)
	return nil
}

type syncReplies struct {
	mu    sync.Mutex
	texts []string
}

func (r *syncReplies) fn(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

type replies struct {
	texts []string
}

func (r *replies) fn(text string) error {
	r.texts = append(r.texts, text)
	return nil
}

func (r *replies) last(t *testing.T) string {
	t.Helper()
	if len(r.texts) == 0 {
		t.Fatal("expected at least one reply")
	}
	return r.texts[len(r.texts)-1]
}

type fixture struct {
	users   *fakeUsers
	reports *fakeReports
	states  convstate.Store
	ocr     *fakeOCR
	media   *fakeMedia
	notify  *fakeNotifier
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:   newFakeUsers(),
		reports: &fakeReports{},
		states:  convstate.NewMemoryStore(convstate.DefaultTTL),
		ocr:     &fakeOCR{},
		media:   &fakeMedia{url: "https://api.telegram.org/file/bot123/photos/a.jpg"},
		notify:  &fakeNotifier{},
	}
	f.service = New(f.users, f.reports, f.states, f.ocr, Options{TempDir: t.TempDir()})
	f.service.AttachTransport(f.media, f.notify)
	f.service.retryWait = func(int) {}
	return f
}

func (f *fixture) registeredUser(t *testing.T, telegramID int64, approved, active bool) *model.User {
	t.Helper()
	ctx := context.Background()
	if _, err := f.users.Create(ctx, telegramID, "operator"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_ = f.users.SetFullName(ctx, telegramID, "Budi Santoso", "operator")
	_ = f.users.SetEmail(ctx, telegramID, "budi@example.com")
	_ = f.users.SetPassword(ctx, telegramID, "hash")
	u := f.users.byTelegramID[telegramID]
	u.IsApproved = approved
	u.IsActive = active
	return u
}

func inbound(telegramID int64, text string) Inbound {
	return Inbound{UserID: telegramID, ChatID: telegramID, Username: "operator", Text: text}
}

func TestStartCreatesUserAndAsksName(t *testing.T) {
	f := newFixture(t)
	r := &replies{}

	if err := f.service.HandleStart(context.Background(), inbound(7, "/start"), r.fn); err != nil {
		t.Fatalf("start: %v", err)
	}
	if f.users.byTelegramID[7] == nil {
		t.Fatal("expected user record")
	}
	if r.last(t) != msgAskName {
		t.Fatalf("reply = %q", r.last(t))
	}
}

func TestStartResumesFromDurableStage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		prepare func(id int64)
		want    string
	}{
		{
			name: "email stage",
			prepare: func(id int64) {
				_, _ = f.users.Create(ctx, id, "op")
				_ = f.users.SetFullName(ctx, id, "Budi Santoso", "op")
			},
			want: msgAskEmail,
		},
		{
			name: "password stage",
			prepare: func(id int64) {
				_, _ = f.users.Create(ctx, id, "op")
				_ = f.users.SetFullName(ctx, id, "Budi Santoso", "op")
				_ = f.users.SetEmail(ctx, id, "budi@example.com")
			},
			want: msgAskPassword,
		},
		{
			name:    "pending approval",
			prepare: func(id int64) { f.registeredUser(t, id, false, false) },
			want:    msgAlreadyPending,
		},
		{
			name:    "deactivated",
			prepare: func(id int64) { f.registeredUser(t, id, true, false) },
			want:    msgAccountInactive,
		},
		{
			name:    "approved and active",
			prepare: func(id int64) { f.registeredUser(t, id, true, true) },
			want:    msgWelcomeBack,
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := int64(100 + i)
			tt.prepare(id)
			r := &replies{}
			if err := f.service.HandleStart(ctx, inbound(id, "/start"), r.fn); err != nil {
				t.Fatalf("start: %v", err)
			}
			if r.last(t) != tt.want {
				t.Fatalf("reply = %q, want %q", r.last(t), tt.want)
			}
		})
	}
}

func TestOnboardingName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.users.Create(ctx, 7, "op")

	r := &replies{}
	if err := f.service.HandleText(ctx, inbound(7, "Bu"), r.fn); err != nil {
		t.Fatalf("short name: %v", err)
	}
	if r.last(t) != msgNameTooShort {
		t.Fatalf("reply = %q", r.last(t))
	}
	if f.users.byTelegramID[7].RegistrationStage != model.StageName {
		t.Fatal("stage must not advance on invalid name")
	}

	if err := f.service.HandleText(ctx, inbound(7, "Budi Santoso"), r.fn); err != nil {
		t.Fatalf("valid name: %v", err)
	}
	if r.last(t) != msgAskEmail {
		t.Fatalf("reply = %q", r.last(t))
	}
	u := f.users.byTelegramID[7]
	if u.FullName.String != "Budi Santoso" || u.RegistrationStage != model.StageEmail {
		t.Fatalf("user = %+v", u)
	}
}

func TestOnboardingEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.users.Create(ctx, 7, "op")
	_ = f.users.SetFullName(ctx, 7, "Budi Santoso", "op")

	r := &replies{}
	_ = f.service.HandleText(ctx, inbound(7, "not an email"), r.fn)
	if r.last(t) != msgEmailInvalid {
		t.Fatalf("reply = %q", r.last(t))
	}

	f.users.emailsTaken["taken@example.com"] = true
	_ = f.service.HandleText(ctx, inbound(7, "taken@example.com"), r.fn)
	if r.last(t) != msgEmailTaken {
		t.Fatalf("reply = %q", r.last(t))
	}

	_ = f.service.HandleText(ctx, inbound(7, "Budi@Example.com"), r.fn)
	if r.last(t) != msgAskPassword {
		t.Fatalf("reply = %q", r.last(t))
	}
	u := f.users.byTelegramID[7]
	if u.Email.String != "budi@example.com" {
		t.Fatalf("email should be lowercased, got %q", u.Email.String)
	}
}

func TestOnboardingPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.users.Create(ctx, 7, "op")
	_ = f.users.SetFullName(ctx, 7, "Budi Santoso", "op")
	_ = f.users.SetEmail(ctx, 7, "budi@example.com")

	r := &replies{}
	_ = f.service.HandleText(ctx, inbound(7, "12345"), r.fn)
	if r.last(t) != msgPasswordShort {
		t.Fatalf("reply = %q", r.last(t))
	}

	_ = f.service.HandleText(ctx, inbound(7, strings.Repeat("x", 51)), r.fn)
	if r.last(t) != msgPasswordLong {
		t.Fatalf("reply = %q", r.last(t))
	}

	_ = f.service.HandleText(ctx, inbound(7, "secret123"), r.fn)
	if r.last(t) != msgRegistrationDone {
		t.Fatalf("reply = %q", r.last(t))
	}
	u := f.users.byTelegramID[7]
	if u.RegistrationStage != model.StageComplete {
		t.Fatalf("stage = %q", u.RegistrationStage)
	}
	if u.PasswordHash.String == "" || u.PasswordHash.String == "secret123" {
		t.Fatal("password must be stored hashed")
	}
}

func TestPhotoPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		prepare func(id int64)
		want    string
	}{
		{
			name:    "unknown user",
			prepare: func(int64) {},
			want:    msgNotRegistered,
		},
		{
			name: "registration incomplete",
			prepare: func(id int64) {
				_, _ = f.users.Create(ctx, id, "op")
			},
			want: msgNotRegistered,
		},
		{
			name:    "not approved",
			prepare: func(id int64) { f.registeredUser(t, id, false, false) },
			want:    msgAlreadyPending,
		},
		{
			name:    "deactivated",
			prepare: func(id int64) { f.registeredUser(t, id, true, false) },
			want:    msgAccountInactive,
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := int64(200 + i)
			tt.prepare(id)
			r := &replies{}
			if err := f.service.HandlePhoto(ctx, inbound(id, ""), "file-1", r.fn); err != nil {
				t.Fatalf("photo: %v", err)
			}
			if r.last(t) != tt.want {
				t.Fatalf("reply = %q, want %q", r.last(t), tt.want)
			}
		})
	}
}

func TestPhotoRejectedSenderKeepsStagedState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registeredUser(t, 7, true, false)

	staged := &convstate.PendingReport{OwnerID: 7, ChatID: 7, GMVAmount: 9000}
	if err := f.states.Set(ctx, 7, convstate.StageWaitingConfirmation, staged); err != nil {
		t.Fatalf("stage: %v", err)
	}

	r := &replies{}
	if err := f.service.HandlePhoto(ctx, inbound(7, ""), "file-1", r.fn); err != nil {
		t.Fatalf("photo: %v", err)
	}
	if r.last(t) != msgAccountInactive {
		t.Fatalf("reply = %q", r.last(t))
	}
	entry, err := f.states.Get(ctx, 7)
	if err != nil || entry == nil {
		t.Fatalf("staged state must survive a rejected photo, got %v, %v", entry, err)
	}
	if entry.Report.GMVAmount != 9000 {
		t.Fatalf("gmv = %v", entry.Report.GMVAmount)
	}
}

func TestPipelineStagesConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registeredUser(t, 7, true, true)
	f.ocr.texts = []string{"GMV LANGSUNG Rp 15.000\nDurasi: 1 jam 30 menit"}

	r := &replies{}
	f.service.runPipeline(ctx, inbound(7, ""), "file-1", r.fn)

	entry, err := f.states.Get(ctx, 7)
	if err != nil || entry == nil {
		t.Fatalf("expected staged state, got %v, %v", entry, err)
	}
	if entry.Stage != convstate.StageWaitingConfirmation {
		t.Fatalf("stage = %q", entry.Stage)
	}
	if entry.Report.GMVAmount != 15000 {
		t.Fatalf("gmv = %v", entry.Report.GMVAmount)
	}
	if entry.Report.DurationLabel != "1 jam 30 menit" {
		t.Fatalf("duration = %q", entry.Report.DurationLabel)
	}
	if entry.Report.ScreenshotURL != f.media.url {
		t.Fatalf("url = %q", entry.Report.ScreenshotURL)
	}

	summary := r.last(t)
	if !strings.Contains(summary, "15.000") || !strings.Contains(summary, "1 jam 30 menit") {
		t.Fatalf("summary = %q", summary)
	}
}

func TestPipelineReportsMissingDuration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registeredUser(t, 7, true, true)
	f.ocr.texts = []string{"GMV Rp 5.000"}

	r := &replies{}
	f.service.runPipeline(ctx, inbound(7, ""), "file-1", r.fn)

	if !strings.Contains(r.last(t), msgNoDuration) {
		t.Fatalf("summary = %q", r.last(t))
	}
}

func TestPipelineDownloadFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registeredUser(t, 7, true, true)
	f.media.err = errors.New("network down")
	f.media.partial = true

	r := &replies{}
	f.service.runPipeline(ctx, inbound(7, ""), "file-1", r.fn)

	if r.last(t) != msgDownloadFailed {
		t.Fatalf("reply = %q", r.last(t))
	}
	if entry, _ := f.states.Get(ctx, 7); entry != nil {
		t.Fatal("no state should be staged on download failure")
	}
	leftovers, err := os.ReadDir(f.service.tempDir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("partial download left %d file(s) behind", len(leftovers))
	}
}

func TestExtractRetriesTransientErrors(t *testing.T) {
	f := newFixture(t)
	f.ocr.errs = []error{errors.New("timeout"), errors.New("timeout")}
	f.ocr.texts = []string{"", "", "GMV Rp 1.000"}

	var waits []int
	f.service.retryWait = func(attempt int) { waits = append(waits, attempt) }

	text, err := f.service.extractWithRetry(context.Background(), "/tmp/x.jpg")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if text != "GMV Rp 1.000" {
		t.Fatalf("text = %q", text)
	}
	if len(waits) != 2 || waits[0] != 1 || waits[1] != 2 {
		t.Fatalf("waits = %v", waits)
	}
}

func TestExtractStopsOnPermanentError(t *testing.T) {
	f := newFixture(t)
	f.ocr.errs = []error{&ocr.ProviderError{Message: "Invalid API key", Permanent: true}}

	_, err := f.service.extractWithRetry(context.Background(), "/tmp/x.jpg")
	if err == nil || !ocr.IsPermanent(err) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if f.ocr.calls != 1 {
		t.Fatalf("calls = %d, permanent errors must not be retried", f.ocr.calls)
	}
}

func TestExtractExhaustsRetries(t *testing.T) {
	f := newFixture(t)
	f.ocr.errs = []error{
		errors.New("e1"), errors.New("e2"), errors.New("e3"), errors.New("e4"),
	}

	_, err := f.service.extractWithRetry(context.Background(), "/tmp/x.jpg")
	if err == nil || err.Error() != "e4" {
		t.Fatalf("expected last error surfaced, got %v", err)
	}
	if f.ocr.calls != 4 {
		t.Fatalf("calls = %d, want max retries plus the initial attempt", f.ocr.calls)
	}
}

func TestConfirmationAffirmPersistsReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registeredUser(t, 7, true, true)
	_ = f.states.Set(ctx, 7, convstate.StageWaitingConfirmation, &convstate.PendingReport{
		OwnerID:       7,
		ChatID:        7,
		GMVAmount:     15000,
		ScreenshotURL: "https://example.com/s.jpg",
		RawOCRText:    "GMV Rp 15.000",
		DurationLabel: "2 jam",
	})

	for _, token := range []string{"ya", " Y ", "YES"} {
		f.reports.created = nil
		f.reports.nextID = 0
		_ = f.states.Set(ctx, 7, convstate.StageWaitingConfirmation, &convstate.PendingReport{
			OwnerID: 7, ChatID: 7, GMVAmount: 15000, ScreenshotURL: "u", RawOCRText: "raw", DurationLabel: "2 jam",
		})

		r := &replies{}
		if err := f.service.HandleText(ctx, inbound(7, token), r.fn); err != nil {
			t.Fatalf("confirm %q: %v", token, err)
		}
		if len(f.reports.created) != 1 {
			t.Fatalf("token %q: reports = %d", token, len(f.reports.created))
		}
		saved := f.reports.created[0]
		if saved.GMVAmount != 15000 || saved.Status != model.ReportPending {
			t.Fatalf("saved = %+v", saved)
		}
		if !saved.DurationLabel.Valid || saved.DurationLabel.String != "2 jam" {
			t.Fatalf("duration = %+v", saved.DurationLabel)
		}
		if entry, _ := f.states.Get(ctx, 7); entry != nil {
			t.Fatal("state must be cleared after confirmation")
		}
		if !strings.Contains(r.last(t), "#1") {
			t.Fatalf("reply = %q", r.last(t))
		}
	}
}

func TestConfirmationNegativeCancels(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registeredUser(t, 7, true, true)

	for _, token := range []string{"n", "tidak", "CANCEL", "no"} {
		_ = f.states.Set(ctx, 7, convstate.StageWaitingConfirmation, &convstate.PendingReport{OwnerID: 7})

		r := &replies{}
		if err := f.service.HandleText(ctx, inbound(7, token), r.fn); err != nil {
			t.Fatalf("cancel %q: %v", token, err)
		}
		if len(f.reports.created) != 0 {
			t.Fatalf("token %q: no report expected", token)
		}
		if entry, _ := f.states.Get(ctx, 7); entry != nil {
			t.Fatal("state must be cleared after cancellation")
		}
		if r.last(t) != msgConfirmCancelled {
			t.Fatalf("reply = %q", r.last(t))
		}
	}
}

func TestConfirmationRepromptKeepsState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registeredUser(t, 7, true, true)
	_ = f.states.Set(ctx, 7, convstate.StageWaitingConfirmation, &convstate.PendingReport{OwnerID: 7})

	r := &replies{}
	if err := f.service.HandleText(ctx, inbound(7, "mungkin"), r.fn); err != nil {
		t.Fatalf("reprompt: %v", err)
	}
	if r.last(t) != msgConfirmReprompt {
		t.Fatalf("reply = %q", r.last(t))
	}
	if entry, _ := f.states.Get(ctx, 7); entry == nil {
		t.Fatal("state must survive an unrecognized reply")
	}
}

func TestConfirmationPersistFailureClearsState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registeredUser(t, 7, true, true)
	f.reports.failing = true
	_ = f.states.Set(ctx, 7, convstate.StageWaitingConfirmation, &convstate.PendingReport{OwnerID: 7, GMVAmount: 100})

	r := &replies{}
	if err := f.service.HandleText(ctx, inbound(7, "Y"), r.fn); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if r.last(t) != msgPersistFailed {
		t.Fatalf("reply = %q", r.last(t))
	}
	if entry, _ := f.states.Get(ctx, 7); entry != nil {
		t.Fatal("state must be cleared even when persistence fails")
	}
}

func TestNewPhotoSupersedesStagedConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registeredUser(t, 7, true, true)
	_ = f.states.Set(ctx, 7, convstate.StageWaitingConfirmation, &convstate.PendingReport{OwnerID: 7, GMVAmount: 100})

	f.ocr.texts = []string{"GMV Rp 999"}
	r := &replies{}
	f.service.runPipeline(ctx, inbound(7, ""), "file-2", r.fn)

	entry, _ := f.states.Get(ctx, 7)
	if entry == nil || entry.Report.GMVAmount != 999 {
		t.Fatalf("expected replacement staging, got %+v", entry)
	}
}

func TestConcurrentPhotosKeepExactlyOneStaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registeredUser(t, 7, true, true)

	// Two pipelines for the same user race freely; whichever finishes
	// last wins, but exactly one staged state must remain.
	ocrA := &fakeOCR{texts: []string{"GMV Rp 111"}}
	ocrB := &fakeOCR{texts: []string{"GMV Rp 222"}}

	var wg sync.WaitGroup
	r := &syncReplies{}
	tempDir := t.TempDir()
	for _, client := range []*fakeOCR{ocrA, ocrB} {
		wg.Add(1)
		go func(c *fakeOCR) {
			defer wg.Done()
			s := New(f.users, f.reports, f.states, c, Options{TempDir: tempDir})
			s.AttachTransport(f.media, f.notify)
			s.retryWait = func(int) {}
			s.runPipeline(ctx, inbound(7, ""), "file", r.fn)
		}(client)
	}
	wg.Wait()

	entry, err := f.states.Get(ctx, 7)
	if err != nil || entry == nil {
		t.Fatalf("expected one staged state, got %v, %v", entry, err)
	}
	if gmv := entry.Report.GMVAmount; gmv != 111 && gmv != 222 {
		t.Fatalf("gmv = %v, must match one of the finished pipelines", gmv)
	}
}

func TestAdminApproveNotifiesOperator(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registeredUser(t, 7, false, false)

	r := &replies{}
	if err := f.service.HandleApprove(ctx, "7", r.fn); err != nil {
		t.Fatalf("approve: %v", err)
	}
	u := f.users.byTelegramID[7]
	if !u.IsApproved || !u.IsActive {
		t.Fatalf("user = %+v", u)
	}
	if len(f.notify.sent[7]) != 1 {
		t.Fatalf("notifications = %v", f.notify.sent)
	}
	if !strings.Contains(r.last(t), "Budi Santoso") {
		t.Fatalf("reply = %q", r.last(t))
	}
}

func TestAdminVerifyReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registeredUser(t, 7, true, true)
	_ = f.states.Set(ctx, 7, convstate.StageWaitingConfirmation, &convstate.PendingReport{OwnerID: 7, GMVAmount: 15000, ScreenshotURL: "u", RawOCRText: "raw"})
	r0 := &replies{}
	_ = f.service.HandleText(ctx, inbound(7, "Y"), r0.fn)

	r := &replies{}
	if err := f.service.HandleVerifyReport(ctx, "1 data cocok", r.fn); err != nil {
		t.Fatalf("verify: %v", err)
	}
	saved := f.reports.created[0]
	if saved.Status != model.ReportVerified {
		t.Fatalf("status = %q", saved.Status)
	}
	if saved.Notes.String != "data cocok" {
		t.Fatalf("notes = %q", saved.Notes.String)
	}
	if len(f.notify.sent[7]) != 1 {
		t.Fatalf("notifications = %v", f.notify.sent)
	}
}

func TestAdminBadArguments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := &replies{}
	if err := f.service.HandleApprove(ctx, "", r.fn); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !strings.Contains(r.last(t), "Format") {
		t.Fatalf("reply = %q", r.last(t))
	}

	if err := f.service.HandleVerifyReport(ctx, "abc", r.fn); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !strings.Contains(r.last(t), "Format") {
		t.Fatalf("reply = %q", r.last(t))
	}
}

func TestTextFallbackForRegisteredUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.registeredUser(t, 7, true, true)

	r := &replies{}
	if err := f.service.HandleText(ctx, inbound(7, "halo"), r.fn); err != nil {
		t.Fatalf("text: %v", err)
	}
	if r.last(t) != msgTextFallback {
		t.Fatalf("reply = %q", r.last(t))
	}
}

func TestTextFromUnknownUser(t *testing.T) {
	f := newFixture(t)

	r := &replies{}
	if err := f.service.HandleText(context.Background(), inbound(9, "halo"), r.fn); err != nil {
		t.Fatalf("text: %v", err)
	}
	if r.last(t) != msgNotRegistered {
		t.Fatalf("reply = %q", r.last(t))
	}
}
