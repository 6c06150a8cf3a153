package kana

var groupOrder = []string{
	"a", "ka", "sa", "ta", "na", "ha", "ma", "ya", "ra", "wa", "n",
	"ga", "za", "da", "ba", "pa",
}

// row lists one group as parallel hiragana, katakana and romaji columns.
type row struct {
	group  string
	hira   []string
	kata   []string
	romaji []string
}

var rows = []row{
	{"a", cols("あ", "い", "う", "え", "お"), cols("ア", "イ", "ウ", "エ", "オ"), cols("a", "i", "u", "e", "o")},
	{"ka", cols("か", "き", "く", "け", "こ"), cols("カ", "キ", "ク", "ケ", "コ"), cols("ka", "ki", "ku", "ke", "ko")},
	{"sa", cols("さ", "し", "す", "せ", "そ"), cols("サ", "シ", "ス", "セ", "ソ"), cols("sa", "shi", "su", "se", "so")},
	{"ta", cols("た", "ち", "つ", "て", "と"), cols("タ", "チ", "ツ", "テ", "ト"), cols("ta", "chi", "tsu", "te", "to")},
	{"na", cols("な", "に", "ぬ", "ね", "の"), cols("ナ", "ニ", "ヌ", "ネ", "ノ"), cols("na", "ni", "nu", "ne", "no")},
	{"ha", cols("は", "ひ", "ふ", "へ", "ほ"), cols("ハ", "ヒ", "フ", "ヘ", "ホ"), cols("ha", "hi", "fu", "he", "ho")},
	{"ma", cols("ま", "み", "む", "め", "も"), cols("マ", "ミ", "ム", "メ", "モ"), cols("ma", "mi", "mu", "me", "mo")},
	{"ya", cols("や", "ゆ", "よ"), cols("ヤ", "ユ", "ヨ"), cols("ya", "yu", "yo")},
	{"ra", cols("ら", "り", "る", "れ", "ろ"), cols("ラ", "リ", "ル", "レ", "ロ"), cols("ra", "ri", "ru", "re", "ro")},
	{"wa", cols("わ", "を"), cols("ワ", "ヲ"), cols("wa", "wo")},
	{"n", cols("ん"), cols("ン"), cols("n")},
	// 濁音・半濁音
	{"ga", cols("が", "ぎ", "ぐ", "げ", "ご"), cols("ガ", "ギ", "グ", "ゲ", "ゴ"), cols("ga", "gi", "gu", "ge", "go")},
	{"za", cols("ざ", "じ", "ず", "ぜ", "ぞ"), cols("ザ", "ジ", "ズ", "ゼ", "ゾ"), cols("za", "ji", "zu", "ze", "zo")},
	{"da", cols("だ", "ぢ", "づ", "で", "ど"), cols("ダ", "ヂ", "ヅ", "デ", "ド"), cols("da", "ji", "zu", "de", "do")},
	{"ba", cols("ば", "び", "ぶ", "べ", "ぼ"), cols("バ", "ビ", "ブ", "ベ", "ボ"), cols("ba", "bi", "bu", "be", "bo")},
	{"pa", cols("ぱ", "ぴ", "ぷ", "ぺ", "ぽ"), cols("パ", "ピ", "プ", "ペ", "ポ"), cols("pa", "pi", "pu", "pe", "po")},
}

func cols(v ...string) []string { return v }

// catalog holds every hiragana entry followed by every katakana entry.
var catalog = buildCatalog()

func buildCatalog() []Kana {
	var out []Kana
	for _, script := range []Type{Hiragana, Katakana} {
		for _, r := range rows {
			chars := r.hira
			if script == Katakana {
				chars = r.kata
			}
			for i, c := range chars {
				out = append(out, Kana{Char: c, Romaji: r.romaji[i], Type: script, Group: r.group})
			}
		}
	}
	return out
}
