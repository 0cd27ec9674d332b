// Package tts provides the text-to-speech backends used to voice training sentences.
//
// Every backend implements Service and returns the audio bytes of a complete WAV file:
//
//	svc, err := tts.NewGoogle(ctx, tts.WithCredentialsFile("google_credentials.json"))
//	if err != nil {
//	    return err
//	}
//	defer svc.Close()
//
//	audio, err := svc.Synthesize(ctx, "Köprü sisle kaplıydı.", tts.SynthesisConfig{
//	    Voice:      tts.DefaultVoice,
//	    Language:   tts.DefaultLanguageCode,
//	    SampleRate: tts.DefaultSampleRate,
//	})
//	if err != nil {
//	    return err
//	}
//	defer audio.Close()
//
// # Backends
//
//   - Google Cloud Text-to-Speech (LINEAR16 at the requested sample rate)
//   - OpenAI speech (raw 24 kHz PCM, wrapped in a WAV header)
package tts
