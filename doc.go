/*
Package cyrkana is a transliteration input engine that turns Cyrillic
keystrokes into Japanese kana.

Each input profile binds a keyboard layout to a schema that maps Cyrillic key
sequences to phonetic keys; a global phonetic table renders those keys as
hiragana. The engine is a small state machine: for every keystroke the host
passes the composition buffer it holds and gets back one of three outcomes.

  - commit: output a converted unit and reset the buffer.
  - composing: keep the returned buffer and wait for the next key.
  - clear: the sequence cannot become valid; drop the buffer.

The engine never stores the buffer, so a single Engine serves any number of
concurrent compositions.

# Usage

	eng := cyrkana.New()
	if err := eng.Boot(ctx, file.New("./pack")); err != nil {
		log.Fatal(err)
	}
	if _, err := eng.Activate(ctx, "rus_standard"); err != nil {
		log.Fatal(err)
	}

	buffer := ""
	for _, key := range []string{"К", "А"} {
		out, err := eng.ProcessKey(ctx, key, buffer, "rus_standard")
		if err != nil {
			log.Fatal(err)
		}
		switch out.Action {
		case domain.ActionCommit:
			fmt.Print(out.Output) // か
			buffer = ""
		case domain.ActionComposing:
			buffer = out.Buffer
		case domain.ActionClear:
			buffer = ""
		}
	}

Composer does that bookkeeping for whole strings, and Runner drives a
Composer line by line over an io.Reader.
*/
package cyrkana
