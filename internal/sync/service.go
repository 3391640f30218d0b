// Package sync keeps the local record store and the remote document store
// eventually consistent: a pull+push reconciliation on startup, live change
// listeners afterwards, and an echo-suppression set so the process never
// re-applies its own writes.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	stdsync "sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/centsible/centsible/internal/common"
	"github.com/centsible/centsible/internal/jobs"
	"github.com/centsible/centsible/internal/model"
	"github.com/centsible/centsible/internal/photos"
	"github.com/centsible/centsible/internal/remote"
	"github.com/centsible/centsible/internal/service"
)

// ScheduledHook is invoked after a scheduled transaction is inserted or
// updated from a remote change, so the reminder engine can re-evaluate it.
type ScheduledHook func(ctx context.Context, sched *model.ScheduledTransaction)

// Service coordinates all traffic between the local store and the remote
// document store. Every remote write in the program goes through it so the
// suppression set is applied uniformly.
type Service struct {
	store     service.Storage
	remote    remote.Store
	scheduler jobs.Scheduler
	photos    photos.Store
	suppress  *suppressionSet

	onScheduled ScheduledHook
	onPullDone  func(col remote.Collection)
	cacheDir    string
	retry       service.RetryOptions
	wg          stdsync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithPhotoStore enables async photo downloads into the local cache.
func WithPhotoStore(store photos.Store, cacheDir string) Option {
	return func(s *Service) {
		s.photos = store
		s.cacheDir = cacheDir
	}
}

// WithScheduledHook registers the hook run after scheduled upserts.
func WithScheduledHook(hook ScheduledHook) Option {
	return func(s *Service) { s.onScheduled = hook }
}

// WithPullProgress registers a callback fired as each collection finishes
// its initial pull, used for progress display.
func WithPullProgress(fn func(col remote.Collection)) Option {
	return func(s *Service) { s.onPullDone = fn }
}

// WithSuppressTTL overrides how long unconsumed suppression entries live.
func WithSuppressTTL(ttl time.Duration) Option {
	return func(s *Service) { s.suppress = newSuppressionSet(ttl) }
}

// WithRetryOptions overrides the backoff applied to remote writes.
func WithRetryOptions(opts service.RetryOptions) Option {
	return func(s *Service) { s.retry = opts }
}

// NewService creates a sync service over the given stores.
func NewService(store service.Storage, rem remote.Store, scheduler jobs.Scheduler, opts ...Option) *Service {
	s := &Service{
		store:     store,
		remote:    rem,
		scheduler: scheduler,
		suppress:  newSuppressionSet(defaultSuppressTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitialSync reconciles both stores: remote documents with no local
// counterpart are inserted locally, and local records never pushed are
// written remotely. The six legs run concurrently; they touch disjoint
// record sets.
func (s *Service) InitialSync(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.pullTransactions(ctx) })
	g.Go(func() error { return s.pullScheduled(ctx) })
	g.Go(func() error { return s.pullBudgets(ctx) })
	g.Go(func() error { return s.pushTransactions(ctx) })
	g.Go(func() error { return s.pushScheduled(ctx) })
	g.Go(func() error { return s.pushBudgets(ctx) })
	return g.Wait()
}

func (s *Service) pullTransactions(ctx context.Context) error {
	docs, err := s.remote.List(ctx, remote.CollectionTransactions)
	if err != nil {
		return fmt.Errorf("failed to pull transactions: %w", err)
	}

	for _, doc := range docs {
		existing, err := s.store.GetTransactionByRemoteID(ctx, doc.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		txn := decodeTransaction(doc, nil)
		ref := txn.PhotoRef
		if s.photoPipeline() {
			txn.PhotoRef = ""
		}
		if err := s.store.SaveTransaction(ctx, txn); err != nil {
			slog.Error("skipping remote transaction", "remote_id", doc.ID, "error", err)
			continue
		}
		s.downloadPhotoAsync(ref, func(ctx context.Context) error {
			return s.store.UpdateTransactionPhoto(ctx, txn.ID, ref)
		})
	}
	s.pullDone(remote.CollectionTransactions)
	return nil
}

func (s *Service) pullScheduled(ctx context.Context) error {
	docs, err := s.remote.List(ctx, remote.CollectionScheduled)
	if err != nil {
		return fmt.Errorf("failed to pull scheduled transactions: %w", err)
	}

	for _, doc := range docs {
		existing, err := s.store.GetScheduledTransactionByRemoteID(ctx, doc.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		sched := decodeScheduled(doc, nil)
		ref := sched.PhotoRef
		if s.photoPipeline() {
			sched.PhotoRef = ""
		}
		if err := s.store.SaveScheduledTransaction(ctx, sched); err != nil {
			slog.Error("skipping remote scheduled transaction", "remote_id", doc.ID, "error", err)
			continue
		}
		s.downloadPhotoAsync(ref, func(ctx context.Context) error {
			return s.store.UpdateScheduledPhoto(ctx, sched.ID, ref)
		})
		s.notifyScheduled(ctx, sched)
	}
	s.pullDone(remote.CollectionScheduled)
	return nil
}

func (s *Service) pullBudgets(ctx context.Context) error {
	docs, err := s.remote.List(ctx, remote.CollectionBudgets)
	if err != nil {
		return fmt.Errorf("failed to pull budget rules: %w", err)
	}

	for _, doc := range docs {
		existing, err := s.store.GetBudgetRuleByRemoteID(ctx, doc.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		rule := decodeBudgetRule(doc, nil)
		if err := s.store.SaveBudgetRule(ctx, rule); err != nil {
			slog.Error("skipping remote budget rule", "remote_id", doc.ID, "error", err)
		}
	}
	s.pullDone(remote.CollectionBudgets)
	return nil
}

func (s *Service) pullDone(col remote.Collection) {
	if s.onPullDone != nil {
		s.onPullDone(col)
	}
}

func (s *Service) pushTransactions(ctx context.Context) error {
	unsynced, err := s.store.ListUnsyncedTransactions(ctx)
	if err != nil {
		return err
	}
	for i := range unsynced {
		if err := s.PushTransaction(ctx, &unsynced[i]); err != nil {
			slog.Warn("transaction push failed, will retry next sync", "id", unsynced[i].ID, "error", err)
		}
	}
	return nil
}

func (s *Service) pushScheduled(ctx context.Context) error {
	unsynced, err := s.store.ListUnsyncedScheduledTransactions(ctx)
	if err != nil {
		return err
	}
	for i := range unsynced {
		if err := s.PushScheduled(ctx, &unsynced[i]); err != nil {
			slog.Warn("scheduled push failed, will retry next sync", "id", unsynced[i].ID, "error", err)
		}
	}
	return nil
}

func (s *Service) pushBudgets(ctx context.Context) error {
	unsynced, err := s.store.ListUnsyncedBudgetRules(ctx)
	if err != nil {
		return err
	}
	for i := range unsynced {
		if err := s.PushBudgetRule(ctx, &unsynced[i]); err != nil {
			slog.Warn("budget push failed, will retry next sync", "id", unsynced[i].ID, "error", err)
		}
	}
	return nil
}

// PushTransaction mirrors a local transaction remotely and marks it synced.
// The document id is reserved in the suppression set before the write so the
// listener echo can never be applied back.
func (s *Service) PushTransaction(ctx context.Context, txn *model.Transaction) error {
	id := txn.RemoteID
	if id == "" {
		id = s.remote.NewID(remote.CollectionTransactions)
	}

	s.suppress.Reserve(id)
	if err := s.putRemote(ctx, remote.CollectionTransactions, id, transactionFields(txn)); err != nil {
		s.suppress.Release(id)
		return fmt.Errorf("failed to push transaction %d: %w", txn.ID, err)
	}

	if err := s.store.MarkTransactionSynced(ctx, txn.ID, id); err != nil {
		return err
	}
	txn.RemoteID = id
	txn.Synced = true
	return nil
}

// PushScheduled mirrors a local scheduled transaction remotely and marks it
// synced.
func (s *Service) PushScheduled(ctx context.Context, sched *model.ScheduledTransaction) error {
	id := sched.RemoteID
	if id == "" {
		id = s.remote.NewID(remote.CollectionScheduled)
	}

	s.suppress.Reserve(id)
	if err := s.putRemote(ctx, remote.CollectionScheduled, id, scheduledFields(sched)); err != nil {
		s.suppress.Release(id)
		return fmt.Errorf("failed to push scheduled transaction %d: %w", sched.ID, err)
	}

	if err := s.store.MarkScheduledSynced(ctx, sched.ID, id); err != nil {
		return err
	}
	sched.RemoteID = id
	sched.Synced = true
	return nil
}

// PushBudgetRule mirrors a local budget rule remotely and marks it synced.
func (s *Service) PushBudgetRule(ctx context.Context, rule *model.BudgetRule) error {
	id := rule.RemoteID
	if id == "" {
		id = s.remote.NewID(remote.CollectionBudgets)
	}

	s.suppress.Reserve(id)
	if err := s.putRemote(ctx, remote.CollectionBudgets, id, budgetRuleFields(rule)); err != nil {
		s.suppress.Release(id)
		return fmt.Errorf("failed to push budget rule %d: %w", rule.ID, err)
	}

	if err := s.store.MarkBudgetRuleSynced(ctx, rule.ID, id); err != nil {
		return err
	}
	rule.RemoteID = id
	rule.Synced = true
	return nil
}

// DeleteRemoteTransaction removes the remote document behind a transaction.
func (s *Service) DeleteRemoteTransaction(ctx context.Context, remoteID string) error {
	return s.deleteRemote(ctx, remote.CollectionTransactions, remoteID)
}

// DeleteRemoteScheduled removes the remote document behind a scheduled
// transaction.
func (s *Service) DeleteRemoteScheduled(ctx context.Context, remoteID string) error {
	return s.deleteRemote(ctx, remote.CollectionScheduled, remoteID)
}

// DeleteRemoteBudgetRule removes the remote document behind a budget rule.
func (s *Service) DeleteRemoteBudgetRule(ctx context.Context, remoteID string) error {
	return s.deleteRemote(ctx, remote.CollectionBudgets, remoteID)
}

func (s *Service) deleteRemote(ctx context.Context, col remote.Collection, remoteID string) error {
	if remoteID == "" {
		return nil
	}

	s.suppress.Reserve(remoteID)
	err := common.WithRetry(ctx, func() error {
		return s.remote.Delete(ctx, col, remoteID)
	}, s.retry)
	if err != nil {
		s.suppress.Release(remoteID)
		return fmt.Errorf("failed to delete remote %s/%s: %w", col, remoteID, err)
	}
	return nil
}

// putRemote issues a remote write with backoff for transient failures.
func (s *Service) putRemote(ctx context.Context, col remote.Collection, id string, fields map[string]any) error {
	return common.WithRetry(ctx, func() error {
		return s.remote.Put(ctx, col, id, fields)
	}, s.retry)
}

// Listen attaches live listeners to every collection. Each collection gets
// one consumer goroutine applying its changes strictly in arrival order;
// cross-collection changes are independent and may interleave.
func (s *Service) Listen(ctx context.Context) error {
	for _, col := range remote.Collections() {
		ch, err := s.remote.Listen(ctx, col)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", col, err)
		}

		s.wg.Add(1)
		go func(col remote.Collection, ch <-chan remote.Change) {
			defer s.wg.Done()
			for change := range ch {
				s.apply(ctx, col, change)
			}
		}(col, ch)
	}
	return nil
}

// Wait blocks until every listener and background download has finished.
// Callers cancel the Listen context first.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) apply(ctx context.Context, col remote.Collection, change remote.Change) {
	if s.suppress.Consume(change.Doc.ID) {
		slog.Debug("suppressed own change", "collection", col, "remote_id", change.Doc.ID)
		return
	}

	var err error
	switch col {
	case remote.CollectionTransactions:
		err = s.applyTransaction(ctx, change)
	case remote.CollectionScheduled:
		err = s.applyScheduled(ctx, change)
	case remote.CollectionBudgets:
		err = s.applyBudgetRule(ctx, change)
	}
	if err != nil {
		slog.Error("failed to apply remote change",
			"collection", col, "kind", change.Kind, "remote_id", change.Doc.ID, "error", err)
	}
}

func (s *Service) applyTransaction(ctx context.Context, change remote.Change) error {
	if change.Kind == remote.ChangeRemoved {
		return s.store.DeleteTransactionByRemoteID(ctx, change.Doc.ID)
	}

	existing, err := s.store.GetTransactionByRemoteID(ctx, change.Doc.ID)
	if err != nil {
		return err
	}

	if existing == nil {
		txn := decodeTransaction(change.Doc, nil)
		ref := txn.PhotoRef
		if s.photoPipeline() {
			txn.PhotoRef = ""
		}
		if err := s.store.SaveTransaction(ctx, txn); err != nil {
			return err
		}
		s.downloadPhotoAsync(ref, func(ctx context.Context) error {
			return s.store.UpdateTransactionPhoto(ctx, txn.ID, ref)
		})
		return nil
	}
	if change.Kind == remote.ChangeAdded {
		// the document is already mirrored; nothing to do
		return nil
	}

	merged := decodeTransaction(change.Doc, existing)
	ref := merged.PhotoRef
	changedPhoto := ref != "" && ref != existing.PhotoRef
	if s.photoPipeline() && changedPhoto {
		// keep the old reference until the new photo is actually cached
		merged.PhotoRef = existing.PhotoRef
	}
	if err := s.store.UpdateTransaction(ctx, merged); err != nil {
		return err
	}
	if changedPhoto {
		s.downloadPhotoAsync(ref, func(ctx context.Context) error {
			return s.store.UpdateTransactionPhoto(ctx, merged.ID, ref)
		})
	}
	return nil
}

func (s *Service) applyScheduled(ctx context.Context, change remote.Change) error {
	if change.Kind == remote.ChangeRemoved {
		localID, err := s.store.DeleteScheduledByRemoteID(ctx, change.Doc.ID)
		if err != nil {
			return err
		}
		if localID != 0 && s.scheduler != nil {
			s.scheduler.CancelScheduled(localID)
		}
		return nil
	}

	existing, err := s.store.GetScheduledTransactionByRemoteID(ctx, change.Doc.ID)
	if err != nil {
		return err
	}

	if existing == nil {
		sched := decodeScheduled(change.Doc, nil)
		ref := sched.PhotoRef
		if s.photoPipeline() {
			sched.PhotoRef = ""
		}
		if err := s.store.SaveScheduledTransaction(ctx, sched); err != nil {
			return err
		}
		s.downloadPhotoAsync(ref, func(ctx context.Context) error {
			return s.store.UpdateScheduledPhoto(ctx, sched.ID, ref)
		})
		s.notifyScheduled(ctx, sched)
		return nil
	}
	if change.Kind == remote.ChangeAdded {
		return nil
	}

	merged := decodeScheduled(change.Doc, existing)
	ref := merged.PhotoRef
	changedPhoto := ref != "" && ref != existing.PhotoRef
	if s.photoPipeline() && changedPhoto {
		merged.PhotoRef = existing.PhotoRef
	}
	if err := s.store.UpdateScheduledTransaction(ctx, merged); err != nil {
		return err
	}
	if changedPhoto {
		s.downloadPhotoAsync(ref, func(ctx context.Context) error {
			return s.store.UpdateScheduledPhoto(ctx, merged.ID, ref)
		})
	}
	s.notifyScheduled(ctx, merged)
	return nil
}

func (s *Service) applyBudgetRule(ctx context.Context, change remote.Change) error {
	if change.Kind == remote.ChangeRemoved {
		return s.store.DeleteBudgetRuleByRemoteID(ctx, change.Doc.ID)
	}

	existing, err := s.store.GetBudgetRuleByRemoteID(ctx, change.Doc.ID)
	if err != nil {
		return err
	}

	if existing == nil {
		return s.store.SaveBudgetRule(ctx, decodeBudgetRule(change.Doc, nil))
	}
	if change.Kind == remote.ChangeAdded {
		return nil
	}
	return s.store.UpdateBudgetRule(ctx, decodeBudgetRule(change.Doc, existing))
}

func (s *Service) notifyScheduled(ctx context.Context, sched *model.ScheduledTransaction) {
	if s.onScheduled != nil {
		s.onScheduled(ctx, sched)
	}
}

// downloadPhotoAsync warms the local photo cache in the background and, once
// the photo is on disk, applies patch to record the reference. Failures are
// logged; a later remote change for the record retries the download.
func (s *Service) downloadPhotoAsync(ref string, patch func(context.Context) error) {
	if ref == "" || !s.photoPipeline() {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		data, err := s.photos.Download(ctx, ref)
		if err != nil {
			slog.Warn("photo download failed", "ref", ref, "error", err)
			return
		}

		dst := filepath.Join(s.cacheDir, path.Base(ref))
		if err := os.WriteFile(dst, data, 0o600); err != nil {
			slog.Warn("photo cache write failed", "ref", ref, "error", err)
			return
		}
		if err := patch(ctx); err != nil {
			slog.Warn("photo reference patch failed", "ref", ref, "error", err)
			return
		}
		slog.Debug("photo cached", "ref", ref, "path", dst, "bytes", len(data))
	}()
}

// photoPipeline reports whether async photo downloads are configured.
func (s *Service) photoPipeline() bool {
	return s.photos != nil && s.cacheDir != ""
}
