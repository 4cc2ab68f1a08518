package gateway

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
)

func TestResultNumberLenient(t *testing.T) {
	r := make(Result)
	r.Set("EURSEKV1M BGN Curncy", "PX_BID", "7.125")
	r.Set("EURSEKV1M BGN Curncy", "PX_ASK", "n/a")

	if got := r.Number("EURSEKV1M BGN Curncy", "PX_BID"); got != 7.125 {
		t.Fatalf("parsed value: got %v, want 7.125", got)
	}
	if got := r.Number("EURSEKV1M BGN Curncy", "PX_ASK"); got != 0 {
		t.Fatalf("unparsable value must default to 0, got %v", got)
	}
	if got := r.Number("MISSING", "PX_BID"); got != 0 {
		t.Fatalf("missing security must default to 0, got %v", got)
	}
}

func TestClientFetchDrainsUntilResponse(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		reader := bufio.NewReader(conn)
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return
		}

		var request refDataRequest
		if err := json.Unmarshal(line, &request); err != nil {
			return
		}

		// One partial event, then the terminal response.
		conn.Write([]byte(`{"type":"partial","securities":[{"security":"EURSEKV1M BGN Curncy","fields":{"PX_BID":"7.1"}}]}` + "\n"))
		conn.Write([]byte(`{"type":"response","securities":[{"security":"EURSEKV1M BGN Curncy","fields":{"PX_ASK":"7.4"}}]}` + "\n"))
	}()

	addr := listener.Addr().(*net.TCPAddr)
	client := NewClient("127.0.0.1", addr.Port, nil)
	if !client.Connect() {
		t.Fatalf("connect failed")
	}
	defer client.Close()

	result, err := client.Fetch([]string{"EURSEKV1M BGN Curncy"}, []string{"PX_BID", "PX_ASK"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if got := result.Value("EURSEKV1M BGN Curncy", "PX_BID"); got != "7.1" {
		t.Fatalf("partial event value lost: got %q", got)
	}
	if got := result.Value("EURSEKV1M BGN Curncy", "PX_ASK"); got != "7.4" {
		t.Fatalf("terminal event value lost: got %q", got)
	}
}

func TestClientConnectFailureAndIdempotentClose(t *testing.T) {
	client := NewClient("127.0.0.1", 1, nil)

	if _, err := client.Fetch([]string{"X"}, []string{"PX_MID"}); err == nil {
		t.Fatalf("fetch without session must fail")
	}

	// Close with no session, twice, must be safe.
	client.Close()
	client.Close()
}
