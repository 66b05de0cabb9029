package export

import (
	"talkclip/internal/naming"
)

// User-facing report texts.
const (
	msgCannotStart         = "Could not start saving."
	msgHostTextUnavailable = "Could not read the text from the speech host."
	msgHostTextBlank       = "The speech host's text is blank."
	msgVoiceTextBlank      = "The text becomes blank after voice replacement."
	msgBlankNotAllowed     = "Blank text cannot be saved as audio."
	msgNameFailed          = "Could not decide the file name."
	msgSetTextFailed       = "Could not set the text in the speech host."
	msgTryPlaying          = "Try playing the text once."
	msgSaveFailed          = "Could not save the audio file."
	msgSaved               = "Saved %s."
	msgSegmented           = "Only the audio file is saved when the speech host splits the file."
	msgSidecarFailed       = "Could not save the text file."
	msgFragmentFailed      = "Could not save the .exo file."
	msgTimelineFailed      = "Could not operate the timeline tool."
	msgOpenFolder          = "Open the save folder"
)

func pathMessage(status naming.PathStatus) (string, string) {
	switch status {
	case naming.PathEmpty:
		return "No save folder is set.", "Set paths.save_dir in the configuration."
	case naming.PathTooLong:
		return "The save path is too long.", "Use a shorter save folder or naming template."
	case naming.PathInvalidChars:
		return "The save path contains characters that cannot be used.", ""
	case naming.PathDirNotFound:
		return "The save folder does not exist.", "Create the folder or change paths.save_dir."
	default:
		return "The save path is invalid.", ""
	}
}
