package shared

import "regexp"

// MaxMessageRunes caps the length of an issue message.
const MaxMessageRunes = 120

// Frame matches a JVM/CLR style stack frame ("at com.example.Foo.bar(Foo.java:12)").
// At least one dot or slash separated segment is required so prose like "failed at startup" does not match.
var Frame = regexp.MustCompile(`(?:^|\s)(at\s+[\w$<>\-]+(?:[./][\w$<>\-]+)+.*)$`)
