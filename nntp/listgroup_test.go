package nntp

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/javi11/nntppool/v4/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeClient wires a Client to one end of an in-memory net.Pipe, so tests
// can script a scripted server on the other end without a real socket.
func pipeClient(t *testing.T) (*Client, net.Conn) {
	t.Helper()
	clientSide, serverSide := net.Pipe()
	c := &Client{
		conn: &transport.Conn{
			Conn:   clientSide,
			Reader: bufio.NewReaderSize(clientSide, 4096),
		},
		state: StateReady,
	}
	t.Cleanup(func() { _ = clientSide.Close(); _ = serverSide.Close() })
	return c, serverSide
}

// TestListGroupReadsMultiLineBodyOn211 is the regression test for the
// LISTGROUP/GROUP 211 ambiguity: LISTGROUP's 211 carries a dot-terminated
// article-number body (§4.3) even though frame.IsMultiLine(211) is false
// (211 is single-line for GROUP). If ListGroup relied on the code table it
// would return no numbers and leave the body block unconsumed, desyncing
// the connection for the next command.
func TestListGroupReadsMultiLineBodyOn211(t *testing.T) {
	c, server := pipeClient(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		reader := bufio.NewReader(server)

		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, "LISTGROUP alt.test\r\n", line)
		_, err = server.Write([]byte("211 3 1 3 alt.test\r\n1\r\n2\r\n3\r\n.\r\n"))
		require.NoError(t, err)

		// A second command must see its own status line, not leftover
		// LISTGROUP body — proves the stream stayed in sync.
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, "DATE\r\n", line)
		_, err = server.Write([]byte("111 20240101000000\r\n"))
		require.NoError(t, err)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	nums, err := c.ListGroup(ctx, "alt.test", "")
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, nums)
	assert.False(t, c.IsBroken())

	date, err := c.Date(ctx)
	require.NoError(t, err)
	assert.Equal(t, "20240101000000", date)

	<-done
}
