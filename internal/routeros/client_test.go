package routeros

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRouter reads one sentence from the server side of a pipe and replies
// with the given words followed by !done.
func fakeRouter(t *testing.T, conn net.Conn, reply ...string) {
	t.Helper()
	go func() {
		defer conn.Close()
		for {
			word, err := readWord(conn, maxWordLen)
			if err != nil {
				return
			}
			if word == "" {
				break
			}
		}
		for _, w := range reply {
			writeWord(conn, w)
		}
		writeWord(conn, "!done")
		writeWord(conn, "")
	}()
}

func TestRunParsesRecords(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	fakeRouter(t, serverSide,
		"!re", "=.id=*1", "=name=alice", "=disabled=false",
		"!re", "=.id=*2", "=name=bob", "=disabled=true",
	)

	c := &client{conn: clientSide, timeout: time.Second}
	defer c.Close()

	records, err := c.Run("/ppp/secret/print")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "alice", records[0]["name"])
	assert.Equal(t, "*2", records[1][".id"])
	assert.Equal(t, "true", records[1]["disabled"])
}

func TestRunSurfacesTrap(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	fakeRouter(t, serverSide, "!trap", "=message=no such item")

	c := &client{conn: clientSide, timeout: time.Second}
	defer c.Close()

	_, err := c.Run("/ppp/secret/remove", "=.id=*99")
	require.Error(t, err)

	var trap *TrapError
	require.ErrorAs(t, err, &trap)
	assert.Equal(t, "no such item", trap.Message)
}

func TestRunTimesOutOnStalledRead(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	// Server accepts the request but never replies; it keeps reading until
	// the client gives up and closes.
	go func() {
		defer serverSide.Close()
		for {
			if _, err := readWord(serverSide, maxWordLen); err != nil {
				return
			}
		}
	}()

	c := &client{conn: clientSide, timeout: 50 * time.Millisecond}
	defer c.Close()

	start := time.Now()
	_, err := c.Run("/system/resource/print")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "read must be bounded")
}
