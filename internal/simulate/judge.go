package simulate

import (
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"sync"
)

var rePollPath = regexp.MustCompile(`/submissions/detail/(\d+)/check`)

// judge is a local stand-in for the coding-judge site. It issues submission
// ids and serves verdicts for status polls, accepting a configurable
// fraction of submissions.
type judge struct {
	mu       sync.Mutex
	rng      *rand.Rand
	rate     float64
	nextID   int
	verdicts map[string]bool

	srv *http.Server
	url string
}

func newJudge(rate float64, seed int64) *judge {
	return &judge{
		rng:      rand.New(rand.NewSource(seed)),
		rate:     rate,
		nextID:   1000,
		verdicts: make(map[string]bool),
	}
}

// start listens on an ephemeral local port.
func (j *judge) start() error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("judge listen: %w", err)
	}
	j.url = "http://" + ln.Addr().String()
	j.srv = &http.Server{Handler: j.handler()}
	go func() {
		_ = j.srv.Serve(ln)
	}()
	return nil
}

func (j *judge) stop() {
	if j.srv != nil {
		_ = j.srv.Close()
	}
}

func (j *judge) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/problems/", func(w http.ResponseWriter, r *http.Request) {
		if m := rePollPath.FindStringSubmatch(r.URL.Path); m != nil {
			j.servePoll(w, m[1])
			return
		}
		if r.Method == http.MethodPost {
			j.serveSubmit(w)
			return
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("/submissions/detail/", func(w http.ResponseWriter, r *http.Request) {
		if m := rePollPath.FindStringSubmatch(r.URL.Path); m != nil {
			j.servePoll(w, m[1])
			return
		}
		http.NotFound(w, r)
	})
	return mux
}

func (j *judge) serveSubmit(w http.ResponseWriter) {
	j.mu.Lock()
	id := strconv.Itoa(j.nextID)
	j.nextID++
	j.verdicts[id] = j.rng.Float64() < j.rate
	j.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"submission_id": %s}`, id)
}

func (j *judge) servePoll(w http.ResponseWriter, id string) {
	j.mu.Lock()
	accepted, known := j.verdicts[id]
	j.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case !known:
		fmt.Fprint(w, `{"status_msg": "Not Found"}`)
	case accepted:
		fmt.Fprint(w, `{"status_code": 10, "status_msg": "Accepted", "status_runtime": "12 ms", "status_memory": "14.1 MB"}`)
	default:
		fmt.Fprint(w, `{"status_code": 11, "status_msg": "Wrong Answer"}`)
	}
}

// accepted reports the verdict issued for a submission id.
func (j *judge) accepted(id string) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.verdicts[id]
}
