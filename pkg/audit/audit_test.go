package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry(op Operation) Entry {
	return Entry{
		Operation:  op,
		EntityKind: "subscription",
		EntityID:   "sub_123",
		CustomerID: "cust_1",
		Detail:     map[string]string{"plan_code": "PRO"},
		At:         time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestMemoryLogger(t *testing.T) {
	l := NewMemoryLogger()

	require.NoError(t, l.Log(context.Background(), sampleEntry(OpSubscriptionCreate)))
	require.NoError(t, l.Log(context.Background(), sampleEntry(OpSubscriptionCancel)))

	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, OpSubscriptionCreate, entries[0].Operation)
}

func TestSQLiteLoggerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	l, err := NewSQLiteLogger(path)
	require.NoError(t, err)
	defer l.Close()

	ctx := context.Background()
	require.NoError(t, l.Log(ctx, sampleEntry(OpSubscriptionCreate)))
	require.NoError(t, l.Log(ctx, sampleEntry(OpSubscriptionUpgrade)))

	entries, err := l.ByEntity(ctx, "subscription", "sub_123")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, OpSubscriptionUpgrade, entries[0].Operation, "newest first")
	assert.Equal(t, "PRO", entries[0].Detail["plan_code"])

	entries, err = l.ByEntity(ctx, "subscription", "other")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMultiLoggerFansOut(t *testing.T) {
	a := NewMemoryLogger()
	b := NewMemoryLogger()
	m := NewMultiLogger(a, b)

	require.NoError(t, m.Log(context.Background(), sampleEntry(OpInvoiceIssue)))

	assert.Len(t, a.Entries(), 1)
	assert.Len(t, b.Entries(), 1)
	assert.NoError(t, m.Close())
}

func TestNopLogger(t *testing.T) {
	var l Logger = Nop{}
	assert.NoError(t, l.Log(context.Background(), sampleEntry(OpInvoicePay)))
	assert.NoError(t, l.Close())
}
