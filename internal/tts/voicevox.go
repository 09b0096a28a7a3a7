package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/Segu-g/NicomView/internal/domain"
)

const (
	voicevoxDefaultHost    = "localhost"
	voicevoxDefaultPort    = 50021
	voicevoxDefaultSpeaker = 1
)

// VoicevoxAdapter speaks through a local VOICEVOX engine: POST /audio_query
// builds the synthesis query, POST /synthesis returns WAV audio which is
// handed to a player callback. Speaker overrides select the VOICEVOX style
// id per event kind.
type VoicevoxAdapter struct {
	mu      sync.Mutex
	host    string
	port    int
	speaker int
	client  *http.Client
	play    func(ctx context.Context, wav []byte) error
}

// NewVoicevoxAdapter creates the adapter. play receives synthesized WAV
// data and blocks until playback finishes; it must not be nil.
func NewVoicevoxAdapter(initial domain.AdapterSettings, play func(ctx context.Context, wav []byte) error) *VoicevoxAdapter {
	a := &VoicevoxAdapter{
		host:    voicevoxDefaultHost,
		port:    voicevoxDefaultPort,
		speaker: voicevoxDefaultSpeaker,
		client:  &http.Client{Timeout: 30 * time.Second},
		play:    play,
	}
	a.UpdateSettings(initial)
	return a
}

func (a *VoicevoxAdapter) ID() string   { return "voicevox" }
func (a *VoicevoxAdapter) Name() string { return "VOICEVOX" }

func (a *VoicevoxAdapter) DefaultSettings() domain.AdapterSettings {
	return domain.AdapterSettings{
		"host":    voicevoxDefaultHost,
		"port":    voicevoxDefaultPort,
		"speaker": voicevoxDefaultSpeaker,
	}
}

func (a *VoicevoxAdapter) Speak(ctx context.Context, text string, speed, volume float64, speaker domain.SpeakerRef) error {
	a.mu.Lock()
	host, port, style := a.host, a.port, a.speaker
	a.mu.Unlock()

	if speaker.Number != nil {
		style = *speaker.Number
	}

	base := fmt.Sprintf("http://%s:%d", host, port)

	q := url.Values{}
	q.Set("text", text)
	q.Set("speaker", strconv.Itoa(style))

	queryReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/audio_query?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build audio_query request: %w", err)
	}
	queryResp, err := a.client.Do(queryReq)
	if err != nil {
		return fmt.Errorf("voicevox audio_query: %w", err)
	}
	defer queryResp.Body.Close()
	if queryResp.StatusCode != http.StatusOK {
		return fmt.Errorf("voicevox audio_query failed: %d", queryResp.StatusCode)
	}

	var query map[string]any
	if err := json.NewDecoder(queryResp.Body).Decode(&query); err != nil {
		return fmt.Errorf("decode audio_query response: %w", err)
	}
	query["speedScale"] = speed
	query["volumeScale"] = volume

	body, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("marshal synthesis query: %w", err)
	}

	sq := url.Values{}
	sq.Set("speaker", strconv.Itoa(style))
	synthReq, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/synthesis?"+sq.Encode(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build synthesis request: %w", err)
	}
	synthReq.Header.Set("Content-Type", "application/json")

	synthResp, err := a.client.Do(synthReq)
	if err != nil {
		return fmt.Errorf("voicevox synthesis: %w", err)
	}
	defer synthResp.Body.Close()
	if synthResp.StatusCode != http.StatusOK {
		return fmt.Errorf("voicevox synthesis failed: %d", synthResp.StatusCode)
	}

	wav, err := io.ReadAll(synthResp.Body)
	if err != nil {
		return fmt.Errorf("read synthesis audio: %w", err)
	}

	return a.play(ctx, wav)
}

func (a *VoicevoxAdapter) IsAvailable(ctx context.Context) bool {
	a.mu.Lock()
	host, port := a.host, a.port
	a.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("http://%s:%d/version", host, port), nil)
	if err != nil {
		return false
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (a *VoicevoxAdapter) UpdateSettings(settings domain.AdapterSettings) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if v, ok := settingString(settings, "host"); ok {
		a.host = v
	}
	if v, ok := settingInt(settings, "port"); ok {
		a.port = v
	}
	if v, ok := settingInt(settings, "speaker"); ok {
		a.speaker = v
	}
}

func (a *VoicevoxAdapter) ParamDefs() []domain.AdapterParamDef {
	return []domain.AdapterParamDef{
		{Key: "host", Label: "ホスト", Type: "string", Default: voicevoxDefaultHost},
		{Key: "port", Label: "ポート", Type: "number", Default: voicevoxDefaultPort},
		{Key: "speaker", Label: "話者スタイルID", Type: "number", Default: voicevoxDefaultSpeaker},
	}
}

func (a *VoicevoxAdapter) Dispose() {
	a.client.CloseIdleConnections()
}
