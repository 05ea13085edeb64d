package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vendorportal/backend/internal/domain/erp"
)

func TestResolveConflict(t *testing.T) {
	assert.Equal(t, DecisionInsert, ResolveConflict(nil))
	assert.Equal(t, DecisionOverwrite, ResolveConflict(&erp.PurchaseOrder{}))
	assert.Equal(t, DecisionPreserveVendorFields, ResolveConflict(&erp.PurchaseOrder{HasVendorUpdates: true}))
}
