package memory_test

import (
	"testing"

	"github.com/aretw0/aware/pkg/adapters/memory"
	"github.com/aretw0/aware/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSubscriptionStoreContract(t, store)
}

func TestMemoryStore_TraceContract(t *testing.T) {
	ports.RunTraceStoreContract(t, memory.NewStore())
}
