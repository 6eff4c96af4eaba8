package factory

import (
	"log/slog"
	"time"

	"github.com/pmorrell/surveyid/internal/dependencies/mocks"
	"github.com/pmorrell/surveyid/internal/mail"
	"github.com/pmorrell/surveyid/internal/services/account"
	"github.com/pmorrell/surveyid/internal/storage/memory"
	"github.com/pmorrell/surveyid/internal/testutil"
)

// TestApp wraps App with handles on the mocked dependencies
type TestApp struct {
	*App

	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	MailRecord *mail.Recorder
	Logger     *slog.Logger
}

// NewForTest creates an App backed by in-memory storage, a mock clock,
// a mock random source and a recording mail dispatcher
func NewForTest(startTime time.Time) *TestApp {
	logger := testutil.NopLogger()
	clk := mocks.NewMockClock(startTime)
	rnd := mocks.NewMockRandom()
	recorder := mail.NewRecorder()

	app := newWithDependencies(memory.New(), clk, rnd, recorder, account.DefaultConfig(), logger)

	return &TestApp{
		App:        app,
		MockClock:  clk,
		MockRandom: rnd,
		MailRecord: recorder,
		Logger:     logger,
	}
}
