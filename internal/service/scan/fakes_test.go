package scan

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/mamadbah2/pettycash/internal/domain/models"
)

type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]models.ScanSession
	nonces   map[string]string
	saves    int
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: make(map[string]models.ScanSession), nonces: make(map[string]string)}
}

func (m *memorySessions) Load(_ context.Context, id string) (*models.ScanSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &s, nil
}

func (m *memorySessions) Save(_ context.Context, s *models.ScanSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.sessions[s.ID] = *s
	return nil
}

func (m *memorySessions) BindNonce(_ context.Context, nonce, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nonces[nonce] = sessionID
	return nil
}

func (m *memorySessions) SessionForNonce(_ context.Context, nonce string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.nonces[nonce]
	if !ok {
		return "", models.ErrNotFound
	}
	return id, nil
}

type memoryFallback struct {
	mu      sync.Mutex
	records map[string]models.ScanCompletion
}

func newMemoryFallback() *memoryFallback {
	return &memoryFallback{records: make(map[string]models.ScanCompletion)}
}

func (m *memoryFallback) Put(_ context.Context, storeID, sessionID string, c models.ScanCompletion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[storeID+":"+sessionID] = c
	return nil
}

func (m *memoryFallback) Take(_ context.Context, storeID, sessionID string) (*models.ScanCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := storeID + ":" + sessionID
	c, ok := m.records[key]
	if !ok {
		return nil, nil
	}
	delete(m.records, key)
	return &c, nil
}

type mutexLocker struct {
	mu sync.Mutex
}

func (l *mutexLocker) Lock(_ context.Context, _ string) (func(), error) {
	l.mu.Lock()
	return l.mu.Unlock, nil
}

type published struct {
	session string
	result  Result
}

type fakePublisher struct {
	mu        sync.Mutex
	connected map[string]bool
	events    []published
}

func (p *fakePublisher) Connected(sessionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected[sessionID]
}

func (p *fakePublisher) Publish(sessionID string, _ string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{session: sessionID, result: payload.(Result)})
	return nil
}

type attachCall struct {
	store, entry, url, actor string
}

type fakeAttacher struct {
	mu    sync.Mutex
	calls []attachCall
	err   error
}

func (a *fakeAttacher) AttachInvoice(_ context.Context, storeID, entryID, url, actor string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.calls = append(a.calls, attachCall{storeID, entryID, url, actor})
	return nil
}

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (b *fakeBlobs) Put(_ context.Context, key string, data []byte, _ string) (models.BlobRef, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.objects == nil {
		b.objects = make(map[string][]byte)
	}
	b.objects[key] = data
	url := "https://blob.test/" + key
	return models.BlobRef{Key: key, URL: url, ViewURL: url + "?v=1"}, nil
}

func testImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y += 7 {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}
