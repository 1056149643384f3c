package prompts

// translationTargets lists the languages offered under "Translate". The
// English name goes into the instruction; the label is localized.
var translationTargets = []struct {
	Code string
	Name string
}{
	{"en", "English"},
	{"es", "Spanish"},
	{"fr", "French"},
	{"de", "German"},
	{"it", "Italian"},
	{"pt", "Portuguese"},
	{"ja", "Japanese"},
	{"zh", "Chinese"},
	{"ru", "Russian"},
	{"ko", "Korean"},
}

var (
	tones      = []string{"professional", "casual", "friendly", "confident"}
	replyTones = []string{"positive", "negative", "neutral", "details"}
)

// TranslateInstruction is the fixed instruction sent for a translation target.
func TranslateInstruction(languageName string) string {
	return "Translate the following text into " + languageName + ":"
}

func leaf(id string) Template {
	return Template{
		ID:             id,
		LabelKey:       "prompts." + id + ".label",
		InstructionKey: "prompts." + id + ".instruction",
	}
}

func menu(id string, children []string) Template {
	t := Template{ID: id, LabelKey: "prompts." + id + ".label"}
	for _, child := range children {
		t.Children = append(t.Children, Template{
			ID:             child,
			LabelKey:       "prompts." + id + "." + child + ".label",
			InstructionKey: "prompts." + id + "." + child + ".instruction",
		})
	}
	return t
}

// Builtin returns the default action catalog in display order.
func Builtin() []Template {
	translate := Template{ID: "translate", LabelKey: "prompts.translate.label"}
	for _, target := range translationTargets {
		translate.Children = append(translate.Children, Template{
			ID:          target.Code,
			LabelKey:    "prompts.translate.languages." + target.Code,
			Instruction: TranslateInstruction(target.Name),
		})
	}

	return []Template{
		leaf("summarize"),
		leaf("key_points"),
		leaf("fix_grammar"),
		leaf("improve"),
		leaf("shorter"),
		leaf("longer"),
		leaf("simplify"),
		leaf("explain"),
		translate,
		menu("tone", tones),
		menu("reply", replyTones),
	}
}
