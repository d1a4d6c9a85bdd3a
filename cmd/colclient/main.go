package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/godyy/gcolony/client"
	"github.com/godyy/gcolony/game"
	"github.com/godyy/gcolony/session"
	"github.com/godyy/gutils/log"
	"github.com/kelseyhightower/envconfig"
)

type Env struct {
	ServerAddr string `envconfig:"COLCLIENT_SERVER_ADDR" default:"127.0.0.1:9830"`
	UserName   string `envconfig:"COLCLIENT_USER_NAME" required:"true"`
	Version    string `envconfig:"COLCLIENT_VERSION" default:""`
}

func loadEnv() (*Env, error) {
	env := &Env{}
	if err := envconfig.Process("", env); err != nil {
		return nil, err
	}
	return env, nil
}

func erringMain() error {
	env, err := loadEnv()
	if err != nil {
		return fmt.Errorf("process env: %w", err)
	}

	logger, err := log.CreateLogger(&log.Config{
		Level:           log.WarnLevel,
		EnableCaller:    false,
		CallerSkip:      0,
		Development:     false,
		EnableStdOutput: true,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	cli, err := client.NewClient(&client.Config{
		LoginTimeout: 5000,
		Session: session.Config{
			HeartbeatTimeout: 10000,
			InactiveTimeout:  60000,
			ReadTimeout:      30000,
			WriteTimeout:     10000,
			ReadBufferSize:   16 * 1024,
			WriteBufferSize:  16 * 1024,
			SendQueueSize:    64,
			MaxPacketSize:    64 * 1024,
		},
	}, client.Params{Logger: logger})
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	cli.SetOnChat(func(sender, message string, private bool) {
		fmt.Printf("[chat] %s: %s\n", sender, message)
	})
	cli.SetOnError(func(templateId, message string) {
		fmt.Printf("[server error] %s\n", message)
	})

	if err := cli.Connect(env.ServerAddr, env.UserName, env.Version); err != nil {
		return fmt.Errorf("connect %s: %w", env.ServerAddr, err)
	}
	fmt.Printf("connected to %s as %s\n", env.ServerAddr, cli.PlayerId())

	runRepl(cli)

	cli.Logout("quit")
	cli.Close(nil)
	return nil
}

// runRepl 极简的命令行交互，覆盖常用动作
func runRepl(cli *client.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "quit":
			return
		case "say":
			err = cli.Chat(strings.Join(fields[1:], " "), false)
		case "move":
			if len(fields) != 3 {
				fmt.Println("usage: move <unitId> <direction>")
				continue
			}
			err = cli.Move(fields[1], game.Direction(fields[2]))
		case "attack":
			if len(fields) != 3 {
				fmt.Println("usage: attack <unitId> <direction>")
				continue
			}
			err = cli.Attack(fields[1], game.Direction(fields[2]))
		case "build":
			if len(fields) != 3 {
				fmt.Println("usage: build <unitId> <name>")
				continue
			}
			err = cli.BuildColony(fields[1], fields[2])
		case "end":
			err = cli.EndTurn()
		case "units":
			for id, u := range cli.Game().Units() {
				fmt.Printf("%s type=%s at=(%d,%d) moves=%d\n", id, u.Type, u.X, u.Y, u.MovesLeft)
			}
		default:
			fmt.Println("commands: say, move, attack, build, end, units, quit")
		}
		if err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func main() {
	if err := erringMain(); err != nil {
		fmt.Fprintf(os.Stderr, "colclient: %v\n", err)
		os.Exit(1)
	}
}
