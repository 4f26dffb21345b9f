// internal/common/camunda/jobs.go
package camunda

import (
	"context"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// CompleteJob completes job with output serialized as its variables.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		return fmt.Errorf("encode job variables: %w", err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		return fmt.Errorf("send complete job %d: %w", job.Key, err)
	}
	return nil
}

// FailJob fails job with the given remaining retries.
func FailJob(ctx context.Context, client worker.JobClient, job entities.Job, cause error, retries int32) error {
	if retries < 0 {
		retries = 0
	}
	_, err := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(retries).
		ErrorMessage(cause.Error()).
		Send(ctx)
	if err != nil {
		return fmt.Errorf("send fail job %d: %w", job.Key, err)
	}
	return nil
}
