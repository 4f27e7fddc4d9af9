// Команда mtproto-session-importer конвертирует строковую сессию Telethon
// в gotd session JSON, пригодный для TELEGRAM_SESSION_STRING.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"markettwits-digest-bot/internal/adapters/mtproto"
)

func main() {
	file := flag.String("file", "", "путь к файлу с сессией; по умолчанию читается stdin")
	flag.Parse()

	var raw []byte
	var err error
	if *file != "" {
		raw, err = os.ReadFile(*file)
	} else {
		raw, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "чтение сессии: %v\n", err)
		os.Exit(1)
	}

	blob, err := mtproto.NormalizeSession(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "конвертация сессии: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(blob))
}
