package tts

import (
	"context"
	"errors"
	"io"
	"testing"

	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pkgerrors "github.com/Abdullah-Arda-Gundogdu/tts-training-data-generator/pkg/errors"
)

type fakeGoogleClient struct {
	lastReq *texttospeechpb.SynthesizeSpeechRequest
	audio   []byte
	err     error
	voices  []*texttospeechpb.Voice
	closed  bool
}

func (f *fakeGoogleClient) SynthesizeSpeech(_ context.Context, req *texttospeechpb.SynthesizeSpeechRequest,
	_ ...gax.CallOption,
) (*texttospeechpb.SynthesizeSpeechResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &texttospeechpb.SynthesizeSpeechResponse{AudioContent: f.audio}, nil
}

func (f *fakeGoogleClient) ListVoices(_ context.Context, req *texttospeechpb.ListVoicesRequest,
	_ ...gax.CallOption,
) (*texttospeechpb.ListVoicesResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &texttospeechpb.ListVoicesResponse{Voices: f.voices}, nil
}

func (f *fakeGoogleClient) Close() error {
	f.closed = true
	return nil
}

func newTestGoogle(c *fakeGoogleClient) *GoogleService {
	return &GoogleService{client: c, timeout: defaultGoogleTimeout}
}

func TestGoogleSynthesize_Request(t *testing.T) {
	fake := &fakeGoogleClient{audio: []byte("RIFF....WAVE")}
	svc := newTestGoogle(fake)

	rc, err := svc.Synthesize(context.Background(), "Köprü sisle kaplıydı.", SynthesisConfig{
		Voice:        "tr-TR-Wavenet-B",
		Language:     "tr-TR",
		SampleRate:   16000,
		Speed:        1.25,
		Pitch:        -2,
		VolumeGainDB: 3,
	})
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF....WAVE"), data)

	req := fake.lastReq
	require.NotNil(t, req)
	assert.Equal(t, "Köprü sisle kaplıydı.", req.GetInput().GetText())
	assert.Equal(t, "tr-TR-Wavenet-B", req.GetVoice().GetName())
	assert.Equal(t, "tr-TR", req.GetVoice().GetLanguageCode())
	assert.Equal(t, texttospeechpb.AudioEncoding_LINEAR16, req.GetAudioConfig().GetAudioEncoding())
	assert.Equal(t, int32(16000), req.GetAudioConfig().GetSampleRateHertz())
	assert.InDelta(t, 1.25, req.GetAudioConfig().GetSpeakingRate(), 1e-9)
	assert.InDelta(t, -2, req.GetAudioConfig().GetPitch(), 1e-9)
	assert.InDelta(t, 3, req.GetAudioConfig().GetVolumeGainDb(), 1e-9)
}

func TestGoogleSynthesize_Defaults(t *testing.T) {
	fake := &fakeGoogleClient{audio: []byte{1, 2}}
	_, err := newTestGoogle(fake).Synthesize(context.Background(), "Merhaba dünya.", SynthesisConfig{})
	require.NoError(t, err)

	assert.Equal(t, DefaultVoice, fake.lastReq.GetVoice().GetName())
	assert.Equal(t, DefaultLanguageCode, fake.lastReq.GetVoice().GetLanguageCode())
	assert.Equal(t, int32(DefaultSampleRate), fake.lastReq.GetAudioConfig().GetSampleRateHertz())
	assert.InDelta(t, DefaultSpeakingRate, fake.lastReq.GetAudioConfig().GetSpeakingRate(), 1e-9)
}

func TestGoogleSynthesize_RejectsBadInput(t *testing.T) {
	fake := &fakeGoogleClient{audio: []byte{1}}
	svc := newTestGoogle(fake)

	_, err := svc.Synthesize(context.Background(), "   ", SynthesisConfig{})
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = svc.Synthesize(context.Background(), "metin", SynthesisConfig{Speed: 5})
	assert.Error(t, err)

	_, err = svc.Synthesize(context.Background(), "metin", SynthesisConfig{SampleRate: 96000})
	assert.Error(t, err)
	assert.Nil(t, fake.lastReq)
}

func TestGoogleSynthesize_ErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		cause     error
		retryable bool
	}{
		{"bad voice", status.Error(codes.InvalidArgument, "Voice 'tr-TR-X' does not exist"), ErrInvalidVoice, false},
		{"quota", status.Error(codes.ResourceExhausted, "quota"), ErrQuotaExceeded, true},
		{"auth", status.Error(codes.Unauthenticated, "no creds"), ErrUnauthenticated, false},
		{"unavailable", status.Error(codes.Unavailable, "down"), ErrServiceUnavailable, true},
		{"plain", errors.New("socket closed"), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestGoogle(&fakeGoogleClient{err: tt.err}).Synthesize(context.Background(), "metin", SynthesisConfig{})
			var se *SynthesisError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, "google", se.Backend)
			assert.Equal(t, tt.retryable, se.Retryable)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
			assert.ErrorIs(t, err, pkgerrors.ErrProviderUnavailable)
		})
	}
}

func TestGoogleSynthesize_EmptyAudio(t *testing.T) {
	_, err := newTestGoogle(&fakeGoogleClient{}).Synthesize(context.Background(), "metin", SynthesisConfig{})
	var se *SynthesisError
	assert.ErrorAs(t, err, &se)
}

func TestGoogleListVoices(t *testing.T) {
	fake := &fakeGoogleClient{voices: []*texttospeechpb.Voice{
		{Name: "tr-TR-Wavenet-A", LanguageCodes: []string{"tr-TR"}, SsmlGender: texttospeechpb.SsmlVoiceGender_FEMALE},
		{Name: "tr-TR-Standard-B", LanguageCodes: []string{"tr-TR"}, SsmlGender: texttospeechpb.SsmlVoiceGender_MALE},
	}}
	voices, err := newTestGoogle(fake).ListVoices(context.Background(), "tr-TR")
	require.NoError(t, err)
	require.Len(t, voices, 2)
	assert.Equal(t, Voice{ID: "tr-TR-Wavenet-A", Name: "tr-TR-Wavenet-A", Language: "tr-TR", Gender: "female"}, voices[0])
	assert.Equal(t, "male", voices[1].Gender)
}

func TestGoogleBasics(t *testing.T) {
	fake := &fakeGoogleClient{}
	svc := newTestGoogle(fake)
	assert.Equal(t, "google", svc.Name())
	assert.Equal(t, TurkishVoices, svc.SupportedVoices())
	require.NoError(t, svc.Close())
	assert.True(t, fake.closed)
	assert.Equal(t, 22050, EffectiveSampleRate(svc, 0))
	assert.Equal(t, 16000, EffectiveSampleRate(svc, 16000))
}

func TestTurkishVoices(t *testing.T) {
	v, ok := LookupVoice(TurkishVoices, DefaultVoice)
	require.True(t, ok)
	assert.Equal(t, "female", v.Gender)

	_, ok = LookupVoice(TurkishVoices, "en-US-Wavenet-A")
	assert.False(t, ok)
}

func TestSynthesisConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultSynthesisConfig().Validate())
	assert.NoError(t, SynthesisConfig{}.Validate())
	assert.Error(t, SynthesisConfig{Speed: 0.1}.Validate())
	assert.Error(t, SynthesisConfig{Pitch: 21}.Validate())
	assert.Error(t, SynthesisConfig{VolumeGainDB: -97}.Validate())
	assert.Error(t, SynthesisConfig{SampleRate: -1}.Validate())
	assert.NoError(t, SynthesisConfig{SampleRate: MaxSampleRate}.Validate())
	assert.Error(t, SynthesisConfig{SampleRate: MaxSampleRate + 1}.Validate())
}
