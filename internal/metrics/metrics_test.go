package metrics

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPoolCollector(t *testing.T) {
	collector := NewPoolCollector(func() PoolStats {
		return PoolStats{Open: 4, InUse: 1, Idle: 3, Max: 10}
	})

	expected := `
# HELP eventsignup_db_connections_in_use Database connections checked out
# TYPE eventsignup_db_connections_in_use gauge
eventsignup_db_connections_in_use 1
# HELP eventsignup_db_connections_open Open database connections
# TYPE eventsignup_db_connections_open gauge
eventsignup_db_connections_open 4
`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected),
		"eventsignup_db_connections_open", "eventsignup_db_connections_in_use"))
	require.Equal(t, 4, testutil.CollectAndCount(collector))
}

func TestRecordQueryClassifiesErrors(t *testing.T) {
	timeouts := DBErrors.WithLabelValues("test_op", "timeout")
	generic := DBErrors.WithLabelValues("test_op", "query_error")
	beforeTimeout := testutil.ToFloat64(timeouts)
	beforeGeneric := testutil.ToFloat64(generic)

	RecordQuery("test_op", time.Now(), context.DeadlineExceeded)
	RecordQuery("test_op", time.Now(), errors.New("syntax error"))
	RecordQuery("test_op", time.Now(), nil)

	require.Equal(t, beforeTimeout+1, testutil.ToFloat64(timeouts))
	require.Equal(t, beforeGeneric+1, testutil.ToFloat64(generic))
}
