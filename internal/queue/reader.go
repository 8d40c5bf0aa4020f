// Package queue reads batches of login events from an SQS queue.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/and161185/login-etl/internal/backoff"
	"github.com/and161185/login-etl/internal/convert"
	"github.com/and161185/login-etl/internal/errs"
	"github.com/and161185/login-etl/internal/model"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// maxDeleteBatch is the SQS limit on entries per DeleteMessageBatch call.
const maxDeleteBatch = 10

// Receiver is the subset of *sqs.Client used by Reader.
type Receiver interface {
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessageBatch(ctx context.Context, in *sqs.DeleteMessageBatchInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageBatchOutput, error)
}

// Options tune a Reader. Zero values fall back to defaults.
type Options struct {
	MaxMessages     int32 // per receive call, 1..10
	WaitTimeSeconds int32 // long polling, 0..20
	DeleteAfterLoad bool  // Ack deletes messages; otherwise they reappear after the visibility timeout
	Policy          backoff.Policy
	Now             func() time.Time
	Logger          *zap.Logger
}

// Reader fetches one batch per call from a single queue.
type Reader struct {
	client   Receiver
	queueURL string
	opts     Options

	// newBackoff is replaced in tests to observe waits.
	newBackoff func() retry.Backoff
}

// NewReader constructs a Reader around an explicitly owned client handle.
func NewReader(client Receiver, queueURL string, opts Options) *Reader {
	if opts.MaxMessages <= 0 || opts.MaxMessages > 10 {
		opts.MaxMessages = 10
	}
	if opts.WaitTimeSeconds < 0 || opts.WaitTimeSeconds > 20 {
		opts.WaitTimeSeconds = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	r := &Reader{client: client, queueURL: queueURL, opts: opts}
	r.newBackoff = opts.Policy.Backoff
	return r
}

type received struct {
	events   []model.RawLoginEvent
	messages []types.Message
}

// FetchBatch receives and decodes one batch, retrying transient failures.
// Exhaustion returns an error wrapping errs.ErrFetchExhausted. Messages stay on
// the queue until Ack is called for the batch.
func (r *Reader) FetchBatch(ctx context.Context) (model.Batch, error) {
	log := r.opts.Logger
	rec := backoff.NewRecorder(r.newBackoff())
	log.Debug("fetching batch",
		zap.String("queue", r.queueURL),
		zap.Duration("max_backoff", r.opts.Policy.MaxWait()),
	)

	attempts := 0
	got, err := backoff.Do(ctx, rec, func(ctx context.Context, attempt int) (received, error) {
		attempts = attempt
		res, err := r.receive(ctx)
		if err != nil {
			log.Warn("receive attempt failed",
				zap.Int("attempt", attempt),
				zap.String("queue", r.queueURL),
				zap.Error(err),
			)
			return received{}, retry.RetryableError(err)
		}
		return res, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return model.Batch{}, ctx.Err()
		}
		return model.Batch{}, fmt.Errorf("%w after %d attempts, %s waited: %w",
			errs.ErrFetchExhausted, attempts, rec.Total(), err)
	}

	batch := model.Batch{
		Events:     got.events,
		CreateDate: model.Date(r.opts.Now()),
		Receipts:   receipts(got.messages),
	}
	log.Info("batch fetched",
		zap.Int("messages", len(got.events)),
		zap.Int("attempts", attempts),
		zap.Duration("backoff", rec.Total()),
		zap.Time("create_date", batch.CreateDate),
	)
	return batch, nil
}

// Ack deletes the batch's messages from the queue. Call it only once the batch
// is durably stored; a no-op when DeleteAfterLoad is off.
func (r *Reader) Ack(ctx context.Context, b model.Batch) error {
	if !r.opts.DeleteAfterLoad || len(b.Receipts) == 0 {
		return nil
	}

	failed := 0
	for lo := 0; lo < len(b.Receipts); lo += maxDeleteBatch {
		hi := min(lo+maxDeleteBatch, len(b.Receipts))
		entries := make([]types.DeleteMessageBatchRequestEntry, 0, hi-lo)
		for i := lo; i < hi; i++ {
			entries = append(entries, types.DeleteMessageBatchRequestEntry{
				Id:            aws.String(fmt.Sprintf("m%d", i)),
				ReceiptHandle: aws.String(b.Receipts[i]),
			})
		}

		out, err := r.client.DeleteMessageBatch(ctx, &sqs.DeleteMessageBatchInput{
			QueueUrl: aws.String(r.queueURL),
			Entries:  entries,
		})
		if err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		for _, f := range out.Failed {
			r.opts.Logger.Warn("delete entry failed",
				zap.String("id", aws.ToString(f.Id)),
				zap.String("code", aws.ToString(f.Code)),
				zap.String("message", aws.ToString(f.Message)),
			)
		}
		failed += len(out.Failed)
	}
	if failed > 0 {
		return fmt.Errorf("delete messages: %d of %d entries failed", failed, len(b.Receipts))
	}
	r.opts.Logger.Info("batch acknowledged", zap.Int("messages", len(b.Receipts)))
	return nil
}

// receive performs one ReceiveMessage round trip. Every failure it returns is transient.
func (r *Reader) receive(ctx context.Context) (received, error) {
	out, err := r.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(r.queueURL),
		MaxNumberOfMessages: r.opts.MaxMessages,
		WaitTimeSeconds:     r.opts.WaitTimeSeconds,
	})
	if err != nil {
		return received{}, fmt.Errorf("%w: receive: %w", errs.ErrTransientFetch, err)
	}
	if out == nil || len(out.Messages) == 0 {
		return received{}, fmt.Errorf("%w: no messages", errs.ErrTransientFetch)
	}
	events, err := convert.FromMessages(out.Messages)
	if err != nil {
		return received{}, fmt.Errorf("%w: %w", errs.ErrTransientFetch, err)
	}
	return received{events: events, messages: out.Messages}, nil
}

func receipts(msgs []types.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.ReceiptHandle != nil {
			out = append(out, *m.ReceiptHandle)
		}
	}
	return out
}
