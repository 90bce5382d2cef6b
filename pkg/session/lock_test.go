package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/assetflow/pkg/adapters/memory"
	"github.com/aretw0/assetflow/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()

	for i := 0; i < 10000; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_ = mgr.Save(ctx, sid, domain.NewWorkflowInstance("w", 1, nil))
		_ = mgr.Delete(ctx, sid)
	}

	assert.Empty(t, mgr.locks, "locks must be released after use")
}
