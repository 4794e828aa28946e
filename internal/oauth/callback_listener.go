package oauth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"auditctl/pkg/logging"
)

// CallbackTimeout is how long to wait for the browser redirect by default.
const CallbackTimeout = 10 * time.Minute

// MaxRequestBytes bounds how much of an inbound request is read before it is dropped.
const MaxRequestBytes = 8 << 10

// DefaultConnReadTimeout bounds how long a single connection may take to send its headers.
const DefaultConnReadTimeout = 10 * time.Second

// CallbackResponse is written verbatim to the connection that delivers the redirect.
const CallbackResponse = "HTTP/1.1 200 OK\r\n\r\n You can close this window now."

var (
	errRequestTooLarge = errors.New("request headers exceed maximum size")
	errEmptyRequest    = errors.New("empty request")
	errBadRequestLine  = errors.New("malformed request line")
)

// CallbackRequest is the request line of the connection that carried the redirect.
type CallbackRequest struct {
	Method     string
	RequestURI string
	Path       string
	RawQuery   string
}

// Captured returns the portion of the request line after "GET /".
func (r *CallbackRequest) Captured() string {
	return strings.TrimPrefix(r.RequestURI, "/")
}

// CallbackListener is a single-shot loopback listener for the identity
// provider's browser redirect. It accepts connections until the first GET
// with a non-empty path, answers it with CallbackResponse and stops.
// Every other connection is read and dropped without a reply. Connections
// are served concurrently, so an idle one cannot hold up the redirect.
type CallbackListener struct {
	listener    net.Listener
	readTimeout time.Duration
	resultCh    chan string
	done        chan struct{}
	once        sync.Once
	capture     sync.Once

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// Listen binds target on the loopback interface and starts accepting in the background.
// Port "0" binds an ephemeral port, see Addr.
func Listen(target RedirectTarget) (*CallbackListener, error) {
	addr := target.Addr()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &BindError{Addr: addr, Reason: err}
	}

	l := &CallbackListener{
		listener:    listener,
		readTimeout: DefaultConnReadTimeout,
		resultCh:    make(chan string, 1),
		done:        make(chan struct{}),
		conns:       make(map[net.Conn]struct{}),
	}

	logging.Info("CallbackListener", "Listening for the sign-in redirect on %s", listener.Addr())

	go l.serve()

	return l, nil
}

// Addr returns the address the listener is bound to.
func (l *CallbackListener) Addr() string {
	return l.listener.Addr().String()
}

// Wait blocks until the redirect arrives, the timeout passes or ctx is done.
// A timeout of zero waits without a deadline. The listener is closed on return.
func (l *CallbackListener) Wait(ctx context.Context, timeout time.Duration) (string, error) {
	defer l.Close()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case raw := <-l.resultCh:
		return raw, nil
	case <-deadline:
		return "", &AuthTimeoutError{Timeout: timeout}
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close stops accepting connections and drops the ones still being read.
// It is safe to call more than once.
func (l *CallbackListener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		err = l.listener.Close()

		l.mu.Lock()
		for conn := range l.conns {
			_ = conn.Close()
		}
		l.mu.Unlock()
	})
	return err
}

func (l *CallbackListener) closed() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// track registers conn so Close can drop it. It reports false once the
// listener is closed.
func (l *CallbackListener) track(conn net.Conn) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed() {
		return false
	}
	l.conns[conn] = struct{}{}
	return true
}

func (l *CallbackListener) untrack(conn net.Conn) {
	l.mu.Lock()
	delete(l.conns, conn)
	l.mu.Unlock()
}

func (l *CallbackListener) serve() {
	for {
		conn, err := l.listener.Accept()
		if err != nil {
			if l.closed() || errors.Is(err, net.ErrClosed) {
				return
			}
			logging.Warn("CallbackListener", "Accept failed: %v", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}

		if !l.track(conn) {
			_ = conn.Close()
			return
		}
		go l.handleConn(conn)
	}
}

// handleConn reads one request. The first redirect to arrive is answered,
// delivered to Wait and stops the listener; later ones are dropped.
func (l *CallbackListener) handleConn(conn net.Conn) {
	defer l.untrack(conn)
	defer conn.Close()

	if l.readTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(l.readTimeout))
	}

	req, err := readCallbackRequest(conn)
	if err != nil {
		if !l.closed() {
			logging.Debug("CallbackListener", "Dropping connection: %v",
				&ReadError{RemoteAddr: conn.RemoteAddr().String(), Reason: err})
		}
		return
	}

	if req.Method != "GET" || req.Captured() == "" {
		logging.Debug("CallbackListener", "Ignoring %s %s from %s", req.Method, req.Path, conn.RemoteAddr())
		return
	}

	won := false
	l.capture.Do(func() { won = true })
	if !won {
		logging.Debug("CallbackListener", "Ignoring second redirect from %s", conn.RemoteAddr())
		return
	}

	if _, err := io.WriteString(conn, CallbackResponse); err != nil {
		// The code already arrived; the browser just won't see the confirmation.
		logging.Warn("CallbackListener", "Failed to acknowledge redirect: %v", err)
	}

	l.resultCh <- req.Captured()
	_ = l.Close()
	logging.Debug("CallbackListener", "Sign-in redirect captured, listener stopped")
}

// readCallbackRequest reads header lines until the blank line that ends them
// and parses the request line. Only the first line is interpreted.
func readCallbackRequest(r io.Reader) (*CallbackRequest, error) {
	reader := bufio.NewReader(io.LimitReader(r, MaxRequestBytes+1))

	var requestLine string
	total := 0
	for {
		line, err := reader.ReadString('\n')
		total += len(line)
		if total > MaxRequestBytes {
			return nil, errRequestTooLarge
		}
		if requestLine == "" {
			requestLine = strings.TrimRight(line, "\r\n")
		}
		if err != nil {
			if errors.Is(err, io.EOF) && requestLine != "" {
				break
			}
			if errors.Is(err, io.EOF) {
				return nil, errEmptyRequest
			}
			return nil, err
		}
		if line == "\r\n" || line == "\n" {
			break
		}
	}

	return parseRequestLine(requestLine)
}

func parseRequestLine(line string) (*CallbackRequest, error) {
	method, rest, ok := strings.Cut(line, " ")
	if !ok || method == "" {
		return nil, fmt.Errorf("%w: %q", errBadRequestLine, line)
	}
	requestURI, _, _ := strings.Cut(rest, " ")
	if !strings.HasPrefix(requestURI, "/") {
		return nil, fmt.Errorf("%w: %q", errBadRequestLine, line)
	}

	path, rawQuery, _ := strings.Cut(requestURI, "?")
	return &CallbackRequest{
		Method:     method,
		RequestURI: requestURI,
		Path:       path,
		RawQuery:   rawQuery,
	}, nil
}
