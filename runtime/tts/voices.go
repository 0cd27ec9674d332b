package tts

// TurkishVoices is the catalogue of Google Cloud Turkish voices offered for training data.
var TurkishVoices = []Voice{
	{ID: "tr-TR-Chirp3-HD-Leda", Name: "Chirp3 HD Leda", Language: "tr-TR", Gender: "female"},
	{ID: "tr-TR-Chirp3-HD-Orus", Name: "Chirp3 HD Orus", Language: "tr-TR", Gender: "male"},
	{ID: "tr-TR-Chirp3-HD-Puck", Name: "Chirp3 HD Puck", Language: "tr-TR", Gender: "male"},
	{ID: "tr-TR-Chirp3-HD-Pulcherrima", Name: "Chirp3 HD Pulcherrima", Language: "tr-TR", Gender: "female"},
	{ID: "tr-TR-Chirp3-HD-Rasalgethi", Name: "Chirp3 HD Rasalgethi", Language: "tr-TR", Gender: "male"},
	{ID: "tr-TR-Chirp3-HD-Sadachbia", Name: "Chirp3 HD Sadachbia", Language: "tr-TR", Gender: "male"},
	{ID: "tr-TR-Chirp3-HD-Sadaltager", Name: "Chirp3 HD Sadaltager", Language: "tr-TR", Gender: "male"},
	{ID: "tr-TR-Chirp3-HD-Schedar", Name: "Chirp3 HD Schedar", Language: "tr-TR", Gender: "male"},
	{ID: "tr-TR-Chirp3-HD-Sulafat", Name: "Chirp3 HD Sulafat", Language: "tr-TR", Gender: "female"},
	{ID: "tr-TR-Chirp3-HD-Umbriel", Name: "Chirp3 HD Umbriel", Language: "tr-TR", Gender: "male"},
	{ID: "tr-TR-Chirp3-HD-Vindemiatrix", Name: "Chirp3 HD Vindemiatrix", Language: "tr-TR", Gender: "female"},
	{ID: "tr-TR-Chirp3-HD-Zephyr", Name: "Chirp3 HD Zephyr", Language: "tr-TR", Gender: "female"},
	{ID: "tr-TR-Chirp3-HD-Zubenelgenubi", Name: "Chirp3 HD Zubenelgenubi", Language: "tr-TR", Gender: "male"},
	{ID: "tr-TR-Wavenet-A", Name: "Wavenet A", Language: "tr-TR", Gender: "female"},
	{ID: "tr-TR-Wavenet-B", Name: "Wavenet B", Language: "tr-TR", Gender: "male"},
	{ID: "tr-TR-Wavenet-C", Name: "Wavenet C", Language: "tr-TR", Gender: "female"},
	{ID: "tr-TR-Wavenet-D", Name: "Wavenet D", Language: "tr-TR", Gender: "female"},
	{ID: "tr-TR-Wavenet-E", Name: "Wavenet E", Language: "tr-TR", Gender: "male"},
	{ID: "tr-TR-Standard-A", Name: "Standard A", Language: "tr-TR", Gender: "female"},
	{ID: "tr-TR-Standard-B", Name: "Standard B", Language: "tr-TR", Gender: "male"},
	{ID: "tr-TR-Standard-C", Name: "Standard C", Language: "tr-TR", Gender: "female"},
	{ID: "tr-TR-Standard-D", Name: "Standard D", Language: "tr-TR", Gender: "female"},
	{ID: "tr-TR-Standard-E", Name: "Standard E", Language: "tr-TR", Gender: "male"},
}

// LookupVoice returns the catalogue entry for id.
func LookupVoice(voices []Voice, id string) (Voice, bool) {
	for _, v := range voices {
		if v.ID == id {
			return v, true
		}
	}
	return Voice{}, false
}
