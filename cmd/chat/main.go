package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"comics-blog/pkg/client"
)

func main() {
	server := flag.String("server", "http://localhost:8000", "base url of the blog server")
	mode := flag.String("mode", "", "chat mode, direct or grounded (server default if empty)")
	timeout := flag.Duration("timeout", 90*time.Second, "request timeout")
	flag.Parse()

	chat := client.NewChatClient(*server, *timeout)

	ask := func(message string) {
		res, err := chat.Send(context.Background(), message, *mode)
		if err != nil {
			log.Printf("error: %v", err)
			return
		}
		fmt.Println(res.Response)
	}

	if flag.NArg() > 0 {
		ask(strings.Join(flag.Args(), " "))
		return
	}

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		if message := strings.TrimSpace(scanner.Text()); message != "" {
			ask(message)
		}
		fmt.Print("> ")
	}
}
