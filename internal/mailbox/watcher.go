package mailbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	imap "github.com/BrianLeishman/go-imap"
)

const (
	DefaultHost         = "imap.gmail.com"
	DefaultPort         = 993
	DefaultFolder       = "INBOX"
	DefaultPollInterval = 30 * time.Second
)

var ErrNotConfigured = errors.New("mailbox: credentials not configured")

type Config struct {
	Host         string
	Port         int
	User         string
	Password     string
	Folder       string
	PollInterval time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	if out.Host == "" {
		out.Host = DefaultHost
	}
	if out.Port <= 0 {
		out.Port = DefaultPort
	}
	if out.Folder == "" {
		out.Folder = DefaultFolder
	}
	if out.PollInterval <= 0 {
		out.PollInterval = DefaultPollInterval
	}
	return out
}

// Message is a newly arrived mail, reduced to what lead qualification reads.
type Message struct {
	UID     int
	Subject string
	Body    string
}

// Handler processes one message. It runs on its own goroutine.
type Handler func(ctx context.Context, m Message)

// Client is the subset of the IMAP dialer the watcher uses.
type Client interface {
	SelectFolder(folder string) error
	GetUIDs(search string) ([]int, error)
	GetEmails(uids ...int) (map[int]*imap.Email, error)
	Close() error
}

type DialFunc func(cfg Config) (Client, error)

// DialIMAP connects over TLS with username/password login.
func DialIMAP(cfg Config) (Client, error) {
	d, err := imap.New(cfg.User, cfg.Password, cfg.Host, cfg.Port)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Watcher polls a mailbox folder and hands each message that arrives after
// start-up to the handler exactly once per process (UID high-water mark).
type Watcher struct {
	cfg    Config
	dial   DialFunc
	handle Handler
	log    *slog.Logger

	client  Client
	lastUID int
	primed  bool
	wg      sync.WaitGroup
}

func NewWatcher(cfg Config, dial DialFunc, handle Handler, log *slog.Logger) *Watcher {
	if dial == nil {
		dial = DialIMAP
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{cfg: cfg.withDefaults(), dial: dial, handle: handle, log: log}
}

// Run polls until ctx is done. Connection failures are logged and retried on the next tick.
func (w *Watcher) Run(ctx context.Context) error {
	if w.cfg.User == "" || w.cfg.Password == "" {
		return ErrNotConfigured
	}
	defer w.wg.Wait()
	defer w.disconnect()

	w.log.Info("mailbox watcher started", "host", w.cfg.Host, "folder", w.cfg.Folder, "interval", w.cfg.PollInterval.String())

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.poll(ctx); err != nil {
			w.log.Error("mailbox poll failed", "err", err)
			w.disconnect()
		}
		select {
		case <-ctx.Done():
			w.log.Info("mailbox watcher stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (w *Watcher) poll(ctx context.Context) error {
	if w.client == nil {
		c, err := w.dial(w.cfg)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		if err := c.SelectFolder(w.cfg.Folder); err != nil {
			_ = c.Close()
			return fmt.Errorf("select %s: %w", w.cfg.Folder, err)
		}
		w.client = c
		w.log.Info("mailbox connected", "folder", w.cfg.Folder)
	}

	if !w.primed {
		uids, err := w.client.GetUIDs("ALL")
		if err != nil {
			return fmt.Errorf("list uids: %w", err)
		}
		w.lastUID = maxUID(uids)
		w.primed = true
		return nil
	}

	// "UID n:*" always matches the newest message, even when it is below n.
	uids, err := w.client.GetUIDs(fmt.Sprintf("UID %d:*", w.lastUID+1))
	if err != nil {
		return fmt.Errorf("search uids: %w", err)
	}
	fresh := newerThan(uids, w.lastUID)
	if len(fresh) == 0 {
		return nil
	}

	w.log.Info("new mail detected", "count", len(fresh))
	emails, err := w.client.GetEmails(fresh...)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	for _, uid := range fresh {
		// Advance first: a message is handed over at most once.
		w.lastUID = uid
		e, ok := emails[uid]
		if !ok || e == nil {
			continue
		}
		m := toMessage(uid, e)
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.handle(ctx, m)
		}()
	}
	return nil
}

func (w *Watcher) disconnect() {
	if w.client == nil {
		return
	}
	if err := w.client.Close(); err != nil {
		w.log.Debug("mailbox close failed", "err", err)
	}
	w.client = nil
}

func toMessage(uid int, e *imap.Email) Message {
	body := e.Text
	if strings.TrimSpace(body) == "" {
		body = e.HTML
	}
	return Message{UID: uid, Subject: e.Subject, Body: body}
}

func maxUID(uids []int) int {
	m := 0
	for _, u := range uids {
		if u > m {
			m = u
		}
	}
	return m
}

func newerThan(uids []int, last int) []int {
	var out []int
	for _, u := range uids {
		if u > last {
			out = append(out, u)
		}
	}
	sort.Ints(out)
	return out
}
