package background

import (
	"context"
	"log"
	"sync"
	"time"

	"plangate/internal/services"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler manages the recurring lifecycle jobs: the daily status sweep,
// the dry-run transition report, upgrade archival and payment reconciliation.
type JobScheduler struct {
	scheduler       gocron.Scheduler
	subscriptionSvc services.SubscriptionService
	upgradeSvc      services.UpgradeService
	paymentSvc      services.PaymentService
	jobs            map[string]gocron.Job
	mu              sync.RWMutex
}

// upgradeArchiveAge is how long a terminal upgrade request stays visible in
// default listings before the archival sweep relabels it.
const upgradeArchiveAge = 90 * 24 * time.Hour

func NewJobScheduler(
	subscriptionSvc services.SubscriptionService,
	upgradeSvc services.UpgradeService,
	paymentSvc services.PaymentService,
) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:       scheduler,
		subscriptionSvc: subscriptionSvc,
		upgradeSvc:      upgradeSvc,
		paymentSvc:      paymentSvc,
		jobs:            make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

// Start starts the job scheduler
func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// registerJobs registers all background jobs
func (js *JobScheduler) registerJobs() {
	// Status sweep - daily. Singleton mode so an overrunning sweep is never
	// doubled.
	sweepJob, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.sweepSubscriptionStatuses, context.Background()),
		gocron.WithName("subscription-status-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create status sweep job: %v", err)
	} else {
		js.jobs["status-sweep"] = sweepJob
	}

	// Transition dry-run report - every 6 hours, diagnostic only
	dryRunJob, err := js.scheduler.NewJob(
		gocron.DurationJob(6*time.Hour),
		gocron.NewTask(js.reportPendingTransitions, context.Background()),
		gocron.WithName("transition-dry-run"),
	)
	if err != nil {
		log.Printf("Failed to create dry-run job: %v", err)
	} else {
		js.jobs["transition-dry-run"] = dryRunJob
	}

	// Upgrade archival - daily
	archiveJob, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.archiveOldUpgrades, context.Background()),
		gocron.WithName("upgrade-archival"),
	)
	if err != nil {
		log.Printf("Failed to create upgrade archival job: %v", err)
	} else {
		js.jobs["upgrade-archival"] = archiveJob
	}

	// Payment duplicate reconciliation - weekly
	reconcileJob, err := js.scheduler.NewJob(
		gocron.DurationJob(7*24*time.Hour),
		gocron.NewTask(js.reconcilePayments, context.Background()),
		gocron.WithName("payment-reconciliation"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create payment reconciliation job: %v", err)
	} else {
		js.jobs["payment-reconciliation"] = reconcileJob
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
}

// sweepSubscriptionStatuses recomputes and persists every subscription status
func (js *JobScheduler) sweepSubscriptionStatuses(ctx context.Context) error {
	log.Printf("Starting subscription status sweep")

	report, err := js.subscriptionSvc.SweepStatuses(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("Status sweep failed: %v", err)
		return err
	}

	log.Printf("Status sweep completed: examined=%d changed=%d anomalies=%d",
		report.Examined, report.Changed, report.Anomalies)
	return nil
}

// reportPendingTransitions logs what the next sweep would change
func (js *JobScheduler) reportPendingTransitions(ctx context.Context) error {
	transitions, err := js.subscriptionSvc.DryRunStatuses(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("Transition dry run failed: %v", err)
		return err
	}

	for _, t := range transitions {
		if t.Anomaly != "" {
			log.Printf("ANOMALY: subscription %s (organization %s): %s",
				t.SubscriptionID, t.OrganizationID, t.Anomaly)
			continue
		}
		log.Printf("Pending transition: subscription %s %s -> %s",
			t.SubscriptionID, t.From.String(), t.To.String())
	}

	log.Printf("Transition dry run completed: %d pending", len(transitions))
	return nil
}

// archiveOldUpgrades relabels long-terminal upgrade requests
func (js *JobScheduler) archiveOldUpgrades(ctx context.Context) error {
	archived, err := js.upgradeSvc.ArchiveOld(ctx, upgradeArchiveAge)
	if err != nil {
		log.Printf("Upgrade archival failed: %v", err)
		return err
	}

	if archived > 0 {
		log.Printf("Archived %d old upgrade requests", archived)
	}
	return nil
}

// reconcilePayments removes duplicate ledger entries
func (js *JobScheduler) reconcilePayments(ctx context.Context) error {
	removed, err := js.paymentSvc.ReconcileDuplicates(ctx)
	if err != nil {
		log.Printf("Payment reconciliation failed: %v", err)
		return err
	}

	log.Printf("Payment reconciliation completed: removed=%d", removed)
	return nil
}

// AddJob adds a custom job to the scheduler
func (js *JobScheduler) AddJob(name string, interval time.Duration, taskFn interface{}, params ...interface{}) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(taskFn, params...),
		gocron.WithName(name),
	)

	if err != nil {
		return err
	}

	js.jobs[name] = job
	log.Printf("Added custom job: %s", name)
	return nil
}

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	status := make(map[string]interface{})
	status["total_jobs"] = len(js.jobs)
	jobs := make([]string, 0, len(js.jobs))

	for name := range js.jobs {
		jobs = append(jobs, name)
	}

	status["jobs"] = jobs

	return status
}
