package ledger

import (
	"fmt"
	"testing"
	"time"

	"evmwallet/pkg/models"

	"github.com/stretchr/testify/assert"
)

func tx(hash string) models.Transaction {
	return models.Transaction{
		Hash:      hash,
		From:      "0xfrom",
		To:        "0xto",
		Value:     "1.0",
		Timestamp: time.Now(),
		Status:    models.StatusPending,
	}
}

func TestAppendNewestFirst(t *testing.T) {
	l := New()
	assert.True(t, l.Append(tx("0x1")))
	assert.True(t, l.Append(tx("0x2")))

	list := l.List()
	assert.Equal(t, 2, len(list))
	assert.Equal(t, "0x2", list[0].Hash)
	assert.Equal(t, "0x1", list[1].Hash)
}

func TestAppendManyKeepsAll(t *testing.T) {
	l := New()
	n := 50
	for i := 0; i < n; i++ {
		l.Append(tx(fmt.Sprintf("0x%d", i)))
	}
	assert.Equal(t, n, l.Len())
	assert.Equal(t, fmt.Sprintf("0x%d", n-1), l.List()[0].Hash)
}

func TestAppendDuplicateHashUpserts(t *testing.T) {
	l := New()
	l.Append(tx("0x1"))
	l.Append(tx("0x2"))

	dup := tx("0x1")
	dup.Value = "2.0"
	assert.False(t, l.Append(dup))

	list := l.List()
	assert.Equal(t, 2, len(list))
	assert.Equal(t, "0x2", list[0].Hash)
	assert.Equal(t, "0x1", list[1].Hash)
	assert.Equal(t, "2.0", list[1].Value)
}

func TestUpdateStatus(t *testing.T) {
	l := New()
	l.Append(tx("0x1"))

	assert.True(t, l.UpdateStatus("0x1", models.StatusConfirmed))
	assert.True(t, l.UpdateStatus("0x1", models.StatusConfirmed))

	list := l.List()
	assert.Equal(t, 1, len(list))
	assert.Equal(t, models.StatusConfirmed, list[0].Status)
}

func TestUpdateStatusUnknownHashIsNoop(t *testing.T) {
	l := New()
	l.Append(tx("0x1"))

	assert.NotPanics(t, func() {
		assert.False(t, l.UpdateStatus("0xmissing", models.StatusFailed))
	})
	assert.Equal(t, models.StatusPending, l.List()[0].Status)
}

func TestPendingAndClear(t *testing.T) {
	l := New()
	l.Append(tx("0x1"))
	l.Append(tx("0x2"))
	l.UpdateStatus("0x1", models.StatusFailed)

	pending := l.Pending()
	assert.Equal(t, 1, len(pending))
	assert.Equal(t, "0x2", pending[0].Hash)

	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Pending())
	assert.False(t, l.UpdateStatus("0x2", models.StatusConfirmed))
}

func TestListReturnsCopy(t *testing.T) {
	l := New()
	l.Append(tx("0x1"))
	list := l.List()
	list[0].Status = models.StatusFailed

	got, ok := l.Get("0x1")
	assert.True(t, ok)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestRestoreDropsDuplicates(t *testing.T) {
	l := New()
	l.Append(tx("0xold"))
	l.Restore([]models.Transaction{tx("0x3"), tx("0x2"), tx("0x3")})

	list := l.List()
	assert.Equal(t, 2, len(list))
	assert.Equal(t, "0x3", list[0].Hash)
	assert.Equal(t, "0x2", list[1].Hash)
}
