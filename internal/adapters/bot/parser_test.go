package bot

import "testing"

func TestParseCommand(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		wantOK   bool
		wantName string
		wantArgs []string
	}{
		{"пустой текст", "", false, "", nil},
		{"обычный текст", "привет", false, "", nil},
		{"одиночный слэш", "/", false, "", nil},
		{"простая команда", "/start", true, "start", nil},
		{"верхний регистр", "/SUBSCRIBE", true, "subscribe", nil},
		{"аргументы", "/get_latest foo bar", true, "get_latest", []string{"foo", "bar"}},
		{"пробелы вокруг", "  /help  ", true, "help", nil},
		{"адресная форма", "/get_latest@MyDigestBot", true, "get_latest", nil},
	}
	for _, tc := range cases {
		cmd, ok := ParseCommand(tc.text)
		if ok != tc.wantOK {
			t.Fatalf("%s: ожидали ok=%v, получили %v", tc.name, tc.wantOK, ok)
		}
		if !ok {
			continue
		}
		if cmd.Name != tc.wantName {
			t.Fatalf("%s: ожидали команду %q, получили %q", tc.name, tc.wantName, cmd.Name)
		}
		if len(cmd.Args) != len(tc.wantArgs) {
			t.Fatalf("%s: ожидали %d аргументов, получили %d", tc.name, len(tc.wantArgs), len(cmd.Args))
		}
		for i := range tc.wantArgs {
			if cmd.Args[i] != tc.wantArgs[i] {
				t.Fatalf("%s: аргумент %d: ожидали %q, получили %q", tc.name, i, tc.wantArgs[i], cmd.Args[i])
			}
		}
	}
}
