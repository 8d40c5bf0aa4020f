package service

import (
	"context"
	"testing"
	"time"

	"github.com/and161185/login-etl/internal/backoff"
	"github.com/and161185/login-etl/internal/errs"
	"github.com/and161185/login-etl/internal/queue"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubSQS struct {
	body    string
	deleted []string
}

var _ queue.Receiver = (*stubSQS)(nil)

func (s *stubSQS) ReceiveMessage(context.Context, *sqs.ReceiveMessageInput, ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	return &sqs.ReceiveMessageOutput{Messages: []types.Message{{
		MessageId:     aws.String("m-1"),
		ReceiptHandle: aws.String("rh-1"),
		Body:          aws.String(s.body),
	}}}, nil
}

func (s *stubSQS) DeleteMessageBatch(_ context.Context, in *sqs.DeleteMessageBatchInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageBatchOutput, error) {
	for _, e := range in.Entries {
		s.deleted = append(s.deleted, aws.ToString(e.ReceiptHandle))
	}
	return &sqs.DeleteMessageBatchOutput{}, nil
}

const scenarioBody = `{"user_id":"u1","app_version":"1.0","device_type":"phone","ip":"1.2.3.4","device_id":"1-2-3","locale":"en"}`

func newQueueReader(t *testing.T, s *stubSQS) *queue.Reader {
	t.Helper()
	return queue.NewReader(s, "http://localhost:4566/000000000000/login-queue", queue.Options{
		DeleteAfterLoad: true,
		Policy:          backoff.Policy{MaxAttempts: 2, Interval: time.Millisecond},
		Logger:          zaptest.NewLogger(t),
	})
}

func TestPipeline_Run_QueueKeepsMessagesUntilLoaded(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		repo    *fakeLoginRepo
		stage   string
		wantErr error
	}{
		{name: "load fails", body: scenarioBody, repo: &fakeLoginRepo{loadErr: errs.ErrLoad}, stage: StageLoad, wantErr: errs.ErrLoad},
		{name: "schema fails", body: scenarioBody, repo: &fakeLoginRepo{ensureErr: errs.ErrSchema}, stage: StageSchema, wantErr: errs.ErrSchema},
		{
			name:    "mask fails",
			body:    `{"user_id":"u1","ip":"1.2.3.400","device_id":"1"}`,
			repo:    &fakeLoginRepo{},
			stage:   StageMask,
			wantErr: errs.ErrMaskFormat,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &stubSQS{body: tc.body}
			p := NewPipeline(newQueueReader(t, s), tc.repo, zaptest.NewLogger(t))

			err := p.Run(context.Background())
			requireStage(t, err, tc.stage)
			require.ErrorIs(t, err, tc.wantErr)
			require.Empty(t, s.deleted)
		})
	}
}

func TestPipeline_Run_QueueDeletedAfterLoad(t *testing.T) {
	s := &stubSQS{body: scenarioBody}
	repo := &fakeLoginRepo{}
	p := NewPipeline(newQueueReader(t, s), repo, zaptest.NewLogger(t))

	require.NoError(t, p.Run(context.Background()))
	require.Equal(t, []string{"rh-1"}, s.deleted)
	require.Len(t, repo.loaded, 1)
	require.Equal(t, "254.253.252.251", repo.loaded[0].MaskedIP)
}
