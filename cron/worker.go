package cron

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tilak5758/barber-salon-backend/config"
	appointmentRepo "github.com/tilak5758/barber-salon-backend/database/repository/appointment"
	"github.com/tilak5758/barber-salon-backend/models"
	"github.com/tilak5758/barber-salon-backend/services/notification"
	"github.com/tilak5758/barber-salon-backend/services/scheduler"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TypeReconcileSlots is the periodic task that sweeps the availability
// ledger for slots still held by dead appointments.
const TypeReconcileSlots = "reconcile:slots"

const reconcileEvery = "@every 5m"

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPass,
		DB:       config.AppConfig.RedisTaskDB,
	}
}

// NewTaskClient returns the enqueue-side asynq client.
func NewTaskClient() *asynq.Client {
	return asynq.NewClient(redisOpts())
}

// StartWorker runs the asynq server and the periodic scheduler in the
// background. Both stop when the process exits; asynq re-enqueues anything
// in flight.
func StartWorker(
	sched scheduler.Service,
	appts appointmentRepo.Repository,
	notifier notification.Service,
	logger *zap.Logger,
) {
	srv := asynq.NewServer(redisOpts(), asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"default": 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypeReminderSend, handleReminderTask(appts, notifier, logger))
	mux.HandleFunc(TypeReconcileSlots, handleReconcileTask(sched, logger))

	go func() {
		logger.Info("starting task worker")
		if err := srv.Run(mux); err != nil {
			logger.Fatal("task worker exited", zap.Error(err))
		}
	}()

	go runPeriodic(logger)
}

// runPeriodic registers the recurring reconcile task.
func runPeriodic(logger *zap.Logger) {
	periodic := asynq.NewScheduler(redisOpts(), nil)
	if _, err := periodic.Register(reconcileEvery, asynq.NewTask(TypeReconcileSlots, nil)); err != nil {
		logger.Error("failed to register reconcile schedule", zap.Error(err))
		return
	}
	if err := periodic.Run(); err != nil {
		logger.Error("periodic scheduler exited", zap.Error(err))
	}
}

func handleReconcileTask(sched scheduler.Service, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		freed, err := sched.ReconcileSlots(ctx)
		if err != nil {
			logger.Error("reconcile sweep failed", zap.Error(err))
			return err
		}
		if freed > 0 {
			logger.Info("reconcile sweep freed slots", zap.Int("freed", freed))
		}
		return nil
	}
}

func handleReminderTask(
	appts appointmentRepo.Repository,
	notifier notification.Service,
	logger *zap.Logger,
) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p notification.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid reminder payload", zap.Error(err))
			return fmt.Errorf("unmarshal reminder payload: %w", err)
		}

		appt, err := appts.GetByID(ctx, p.AppointmentID)
		if err != nil {
			// Appointment gone; nothing to remind about.
			logger.Debug("reminder skipped: appointment not found",
				zap.String("appointmentId", p.AppointmentID))
			return nil
		}
		if appt.Status != models.ApptConfirmed {
			return nil
		}

		notifier.Notify(ctx, appt.CustomerID, models.NotifAppointmentReminder,
			fmt.Sprintf("Reminder: your appointment on %s is coming up.", appt.Date),
			map[string]interface{}{"appointmentId": appt.ID})
		return nil
	}
}
