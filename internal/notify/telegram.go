// Package notify tells the clinic about accepted consultation requests.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"vetagenda/internal/booking"
	"vetagenda/internal/model"
	"vetagenda/internal/schedule"
)

// Sender is the part of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier receives accepted requests.
type Notifier interface {
	NotifyAppointment(ctx context.Context, req model.AppointmentRequest) error
}

// TelegramNotifier posts a summary of each accepted request to one chat.
type TelegramNotifier struct {
	sender Sender
	chatID int64
}

func NewTelegramNotifier(sender Sender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chatID: chatID}
}

// NotifyAppointment sends the summary.
func (n *TelegramNotifier) NotifyAppointment(ctx context.Context, req model.AppointmentRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, FormatAppointment(req))
	if _, err := n.sender.Send(msg); err != nil {
		return fmt.Errorf("telegram send to %d: %w", n.chatID, err)
	}
	return nil
}

// FormatAppointment renders the Portuguese summary sent to the clinic.
func FormatAppointment(req model.AppointmentRequest) string {
	var b strings.Builder
	b.WriteString("Nova consulta solicitada\n")
	fmt.Fprintf(&b, "Tutor: %s\n", req.TutorName)
	fmt.Fprintf(&b, "Pet: %s\n", req.PetName)

	if d, err := time.Parse("2006-01-02", req.ConsultationDate); err == nil {
		day, _ := schedule.DayName(int(d.Weekday()))
		fmt.Fprintf(&b, "Data: %s (%s)\n", d.Format("02/01/2006"), day)
	} else {
		fmt.Fprintf(&b, "Data: %s\n", req.ConsultationDate)
	}

	clock := req.Time
	if len(clock) > 5 {
		clock = clock[:5]
	}
	fmt.Fprintf(&b, "Horário: %s\n", clock)
	fmt.Fprintf(&b, "Local: %d", req.VetWorkID)

	if reason := strings.TrimSpace(req.Reason); reason != "" {
		fmt.Fprintf(&b, "\nMotivo: %s", reason)
	}
	return b.String()
}

// NotifyingSubmitter forwards to Next and notifies after an accepted request.
// Notification failures are logged and never change the submission outcome.
type NotifyingSubmitter struct {
	Next     booking.Submitter
	Notifier Notifier
	Logger   zerolog.Logger
}

// SubmitAppointment implements booking.Submitter.
func (s *NotifyingSubmitter) SubmitAppointment(ctx context.Context, req model.AppointmentRequest) (*model.SubmissionResult, error) {
	res, err := s.Next.SubmitAppointment(ctx, req)
	if err != nil || res == nil || !res.Success || s.Notifier == nil {
		return res, err
	}

	if nerr := s.Notifier.NotifyAppointment(ctx, req); nerr != nil {
		s.Logger.Warn().Err(nerr).
			Int64("location_id", req.VetWorkID).
			Str("date", req.ConsultationDate).
			Msg("Failed to send appointment notification")
	}
	return res, nil
}
