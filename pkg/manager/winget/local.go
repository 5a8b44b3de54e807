package winget

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Origin labels for installed packages that no winget repository owns.
const (
	OriginLocalPC        = "Local PC"
	OriginSteam          = "Steam"
	OriginUbisoft        = "Ubisoft Connect"
	OriginGOG            = "GOG"
	OriginMicrosoftStore = "Microsoft Store"
	OriginAndroid        = "Android Subsystem"
)

// localSource guesses where an installed package came from by the shape of
// its Id. ARP entries, game launchers and Store packages all show up in
// `winget list` without a repository column.
func localSource(id, label string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}

	if allIn(id, "abcdefghijklmnopqrstuvwxyz.") && strings.Count(id, ".") > 1 {
		return OriginAndroid
	}

	s := label
	if strings.ContainsAny(id, "{} ") {
		s = OriginLocalPC
	}
	if s == label && strings.Count(id, ".") != 1 {
		s = OriginLocalPC
		if strings.Count(id, ".") > 1 && strings.IndexFunc(id, unicode.IsUpper) >= 0 {
			s = label
		}
	}

	if s == OriginLocalPC {
		s = launcherSource(id)
	}

	if s == label {
		parts := strings.Split(id, "_")
		last := parts[len(parts)-1]
		n := utf8.RuneCountInString(last)
		switch {
		case (n == 13 || n == 14) && (len(parts) == 2 || id == strings.ToUpper(id)):
			s = OriginMicrosoftStore
		case n <= 13 && len(parts) == 2 && strings.HasSuffix(last, "…"):
			s = OriginMicrosoftStore
		}
	}

	if n := utf8.RuneCountInString(id); (n == 13 || n == 14) && id == strings.ToUpper(id) {
		return label + ": msstore"
	}
	if s == label {
		return label + ": winget"
	}
	return s
}

// launcherSource recognises game launcher registrations among local ids.
func launcherSource(id string) string {
	switch {
	case id == "Steam":
		return OriginSteam
	case strings.Count(id, "Steam App ") == 1:
		_, n, _ := strings.Cut(id, "Steam App ")
		if allIn(n, "0123456789") {
			return OriginSteam
		}
	case id == "Uplay":
		return OriginUbisoft
	case strings.Count(id, "Uplay Install ") == 1:
		_, n, _ := strings.Cut(id, "Uplay Install ")
		if allIn(n, "0123456789") {
			return OriginUbisoft
		}
	case strings.Count(id, "_is1") == 1:
		if strings.Contains(id, "GOG") {
			return OriginGOG
		}
		n, _, _ := strings.Cut(id, "_is1")
		if allIn(n, "0123456789") && utf8.RuneCountInString(id) == 14 {
			return OriginGOG
		}
	}
	return OriginLocalPC
}

// allIn reports whether s is non-empty and made only of runes from set.
func allIn(s, set string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(set, r) {
			return false
		}
	}
	return true
}
