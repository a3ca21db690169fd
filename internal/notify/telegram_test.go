package notify

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vetagenda/internal/booking"
	"vetagenda/internal/model"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return tgbotapi.Message{}, args.Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyAppointment(ctx context.Context, req model.AppointmentRequest) error {
	return m.Called(ctx, req).Error(0)
}

var request = model.AppointmentRequest{
	TutorName:        "Ana Souza",
	PetName:          "Rex",
	VetWorkID:        7,
	ConsultationDate: "2026-10-19",
	Time:             "09:30:00",
	Reason:           "Vacina",
}

func TestFormatAppointment(t *testing.T) {
	want := "Nova consulta solicitada\n" +
		"Tutor: Ana Souza\n" +
		"Pet: Rex\n" +
		"Data: 19/10/2026 (Segunda)\n" +
		"Horário: 09:30\n" +
		"Local: 7\n" +
		"Motivo: Vacina"
	assert.Equal(t, want, FormatAppointment(request))

	noReason := request
	noReason.Reason = "  "
	noReason.ConsultationDate = "19/10/2026"
	got := FormatAppointment(noReason)
	assert.Contains(t, got, "Data: 19/10/2026\n")
	assert.NotContains(t, got, "Motivo")
}

func TestTelegramNotifier(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		return ok && msg.ChatID == -100123 && msg.Text == FormatAppointment(request)
	})).Return(nil).Once()

	n := NewTelegramNotifier(sender, -100123)
	require.NoError(t, n.NotifyAppointment(context.Background(), request))
	sender.AssertExpectations(t)

	sender.On("Send", mock.Anything).Return(errors.New("forbidden")).Once()
	assert.ErrorContains(t, n.NotifyAppointment(context.Background(), request), "forbidden")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.NotifyAppointment(ctx, request), context.Canceled)
	sender.AssertNumberOfCalls(t, "Send", 2)
}

func TestNotifyingSubmitter(t *testing.T) {
	tests := []struct {
		name       string
		result     *model.SubmissionResult
		submitErr  error
		notifyErr  error
		wantNotify bool
	}{
		{name: "accepted", result: &model.SubmissionResult{Success: true}, wantNotify: true},
		{name: "accepted, notification fails", result: &model.SubmissionResult{Success: true}, notifyErr: errors.New("down"), wantNotify: true},
		{name: "rejected", result: &model.SubmissionResult{Success: false, Error: "Horário indisponível"}},
		{name: "transport error", submitErr: errors.New("timeout")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := booking.SubmitterFunc(func(ctx context.Context, req model.AppointmentRequest) (*model.SubmissionResult, error) {
				return tt.result, tt.submitErr
			})
			notifier := new(mockNotifier)
			if tt.wantNotify {
				notifier.On("NotifyAppointment", mock.Anything, request).Return(tt.notifyErr).Once()
			}

			s := &NotifyingSubmitter{Next: next, Notifier: notifier, Logger: zerolog.Nop()}
			res, err := s.SubmitAppointment(context.Background(), request)

			assert.Equal(t, tt.result, res)
			assert.Equal(t, tt.submitErr, err)
			if tt.wantNotify {
				notifier.AssertExpectations(t)
			} else {
				notifier.AssertNotCalled(t, "NotifyAppointment", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestNotifyingSubmitter_NilNotifier(t *testing.T) {
	next := booking.SubmitterFunc(func(ctx context.Context, req model.AppointmentRequest) (*model.SubmissionResult, error) {
		return &model.SubmissionResult{Success: true}, nil
	})
	s := &NotifyingSubmitter{Next: next, Logger: zerolog.Nop()}
	res, err := s.SubmitAppointment(context.Background(), request)
	require.NoError(t, err)
	assert.True(t, res.Success)
}
