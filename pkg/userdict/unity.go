package userdict

import (
	"strconv"
	"strings"

	"github.com/inkwell-ime/imecore/pkg/dict"
)

// UnityPrefix marks a dict entry's custom_code as constructed by the unity
// encoder: a control-byte-framed sequence that cannot occur in a real code,
// so PreferUserPhrase-style logic can recognize it with a simple prefix
// check.
const UnityPrefix = "\x1bU\x1b"

// UnitySymbol is the fixed ornament shown in place of a constructed entry's
// own comment.
const UnitySymbol = "⚙︎ "

// UnityEncoder packs user-composed phrases back into the user dictionary
// under UnityPrefix so later lookups see them as long-code entries.
type UnityEncoder interface {
	EncodePhrase(text string, weight string) error
	LookupPhrases(key string, prefix bool, limit int) (dict.DictEntryIterator, int)
}

// UnityTableEncoder is the reference UnityEncoder, backed by the same kind
// of Store a UserDict uses, keyed on UnityPrefix+text.
type UnityTableEncoder struct {
	store Store
}

// NewUnityTableEncoder wraps store for unity-encoded phrases.
func NewUnityTableEncoder(store Store) *UnityTableEncoder {
	return &UnityTableEncoder{store: store}
}

// IsConstructed reports whether customCode marks an entry the unity encoder
// produced.
func IsConstructed(customCode string) bool {
	return strings.HasPrefix(customCode, UnityPrefix)
}

// EncodePhrase bumps text's dee by weight (parsed as a float; "1" for a
// primary phrase commit, "0" for a touch-only context-history accumulation)
// and advances its tick.
func (u *UnityTableEncoder) EncodePhrase(text string, weight string) error {
	delta, err := strconv.ParseFloat(weight, 64)
	if err != nil {
		delta = 0
	}
	key := UnityPrefix + text
	v := Value{}
	if existing, ok := u.store.Get(key); ok {
		v = Unpack(existing)
	}
	v.Dee += delta
	if delta > 0 {
		v.Commits++
	}
	v.Tick++
	return u.store.Put(key, v.Pack())
}

// LookupPhrases looks up key under UnityPrefix, exact or as a prefix scan,
// returning entries whose CustomCode carries UnityPrefix so callers can
// recognize them as constructed.
func (u *UnityTableEncoder) LookupPhrases(key string, prefix bool, limit int) (dict.DictEntryIterator, int) {
	scanKey := UnityPrefix + key
	var hits []dict.DictEntry
	count := 0

	if !prefix {
		if raw, ok := u.store.Get(scanKey); ok {
			v := Unpack(raw)
			hits = append(hits, dict.DictEntry{
				Text:       key,
				Weight:     v.Dee,
				CustomCode: scanKey,
				Comment:    UnitySymbol,
			})
			count = 1
		}
		return dict.NewSliceIterator(hits), count
	}

	_ = u.store.PrefixIterate(scanKey, "", func(k, value string) bool {
		if limit > 0 && count >= limit {
			return false
		}
		text := strings.TrimPrefix(k, UnityPrefix)
		v := Unpack(value)
		hits = append(hits, dict.DictEntry{
			Text:       text,
			Weight:     v.Dee,
			CustomCode: k,
			Comment:    UnitySymbol,
		})
		count++
		return true
	})
	return dict.NewSliceIterator(hits), count
}
