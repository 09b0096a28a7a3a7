package tts

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/Segu-g/NicomView/internal/domain"
)

const (
	bouyomichanDefaultHost = "localhost"
	bouyomichanDefaultPort = 50080
	// -1 lets BouyomiChan use its own configured value.
	bouyomichanDefaultTone = -1
)

// BouyomichanAdapter speaks through the BouyomiChan HTTP interface
// (GET /Talk on port 50080 by default). Speed maps 1.0 -> 100 and volume
// 1.0 -> 50 on BouyomiChan's 0-100 scales.
type BouyomichanAdapter struct {
	mu     sync.Mutex
	host   string
	port   int
	voice  int
	tone   int
	client *http.Client
}

// NewBouyomichanAdapter creates the adapter with default connection
// settings. initial may override host, port, voice and tone.
func NewBouyomichanAdapter(initial domain.AdapterSettings) *BouyomichanAdapter {
	a := &BouyomichanAdapter{
		host:   bouyomichanDefaultHost,
		port:   bouyomichanDefaultPort,
		voice:  0,
		tone:   bouyomichanDefaultTone,
		client: &http.Client{Timeout: 10 * time.Second},
	}
	a.UpdateSettings(initial)
	return a
}

func (a *BouyomichanAdapter) ID() string   { return "bouyomichan" }
func (a *BouyomichanAdapter) Name() string { return "棒読みちゃん" }

func (a *BouyomichanAdapter) DefaultSettings() domain.AdapterSettings {
	return domain.AdapterSettings{
		"host":  bouyomichanDefaultHost,
		"port":  bouyomichanDefaultPort,
		"voice": 0,
		"tone":  bouyomichanDefaultTone,
	}
}

func (a *BouyomichanAdapter) Speak(ctx context.Context, text string, speed, volume float64, speaker domain.SpeakerRef) error {
	a.mu.Lock()
	host, port, voice, tone := a.host, a.port, a.voice, a.tone
	a.mu.Unlock()

	if speaker.Number != nil {
		voice = *speaker.Number
	}

	q := url.Values{}
	q.Set("text", text)
	q.Set("voice", strconv.Itoa(voice))
	q.Set("speed", strconv.Itoa(bouyomichanSpeed(speed)))
	q.Set("volume", strconv.Itoa(bouyomichanVolume(volume)))
	q.Set("tone", strconv.Itoa(tone))

	talkURL := fmt.Sprintf("http://%s:%d/Talk?%s", host, port, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, talkURL, nil)
	if err != nil {
		return fmt.Errorf("build talk request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("bouyomichan talk: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("BouyomiChan Talk failed: %d", resp.StatusCode)
	}
	return nil
}

func (a *BouyomichanAdapter) IsAvailable(ctx context.Context) bool {
	// An empty Talk request succeeds without speaking anything.
	err := a.Speak(ctx, "", 1, 1, domain.SpeakerRef{})
	return err == nil
}

func (a *BouyomichanAdapter) UpdateSettings(settings domain.AdapterSettings) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if v, ok := settingString(settings, "host"); ok {
		a.host = v
	}
	if v, ok := settingInt(settings, "port"); ok {
		a.port = v
	}
	if v, ok := settingInt(settings, "voice"); ok {
		a.voice = v
	}
	if v, ok := settingInt(settings, "tone"); ok {
		a.tone = v
	}
}

func (a *BouyomichanAdapter) ParamDefs() []domain.AdapterParamDef {
	return []domain.AdapterParamDef{
		{Key: "host", Label: "ホスト", Type: "string", Default: bouyomichanDefaultHost},
		{Key: "port", Label: "ポート", Type: "number", Default: bouyomichanDefaultPort},
		{
			Key: "voice", Label: "声質", Type: "select", Default: 0,
			Options: []domain.AdapterParamOption{
				{Value: 0, Label: "デフォルト"},
				{Value: 1, Label: "女性1"},
				{Value: 2, Label: "女性2"},
				{Value: 3, Label: "男性1"},
				{Value: 4, Label: "男性2"},
				{Value: 5, Label: "中性"},
				{Value: 6, Label: "ロボット"},
				{Value: 7, Label: "機械1"},
				{Value: 8, Label: "機械2"},
			},
		},
		{Key: "tone", Label: "音程", Type: "number", Default: bouyomichanDefaultTone},
	}
}

func (a *BouyomichanAdapter) Dispose() {
	a.client.CloseIdleConnections()
}

// bouyomichanSpeed converts a 1.0-centered multiplier to BouyomiChan's
// 50-300 speed scale.
func bouyomichanSpeed(speed float64) int {
	scaled := int(speed * 100)
	if scaled < 50 {
		return 50
	}
	if scaled > 300 {
		return 300
	}
	return scaled
}

// bouyomichanVolume converts a 1.0-centered multiplier to BouyomiChan's
// 0-100 volume scale, with 1.0 mapping to the half-volume default.
func bouyomichanVolume(volume float64) int {
	scaled := int(volume * 50)
	if scaled < 0 {
		return 0
	}
	if scaled > 100 {
		return 100
	}
	return scaled
}

func settingString(s domain.AdapterSettings, key string) (string, bool) {
	v, ok := s[key].(string)
	return v, ok && v != ""
}

func settingInt(s domain.AdapterSettings, key string) (int, bool) {
	switch v := s[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}
