package main

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/CodedInternet/gocrawler/onboard"
	"github.com/CodedInternet/gocrawler/onboard/motion"
	"github.com/abiosoft/ishell/v2"
)

func verbNames([]string) []string {
	names := make([]string, 0, len(onboard.Verbs()))
	for _, v := range onboard.Verbs() {
		names = append(names, string(v))
	}
	return names
}

// newShell builds the development shell. Movement goes through the same
// scheduler as the network API.
func newShell(g *Gateway) *ishell.Shell {
	shell := ishell.New()
	shell.Println("Crawler development shell")

	shell.AddCmd(&ishell.Cmd{
		Name: "createsuperuser",
		Help: "createsuperuser <email> <password>",
		Func: func(c *ishell.Context) {
			// disable the '>>>' for cleaner same line input.
			c.ShowPrompt(false)
			defer c.ShowPrompt(true) // yes, revert when done.

			var email string
			if len(c.Args) >= 1 {
				email = c.Args[0]
			} else {
				c.Print("Email: ")
				email = c.ReadLine()
			}

			var password string
			if len(c.Args) >= 2 {
				password = c.Args[1]
			} else {
				c.Print("Password: ")
				password = c.ReadPassword()
			}

			op, err := NewOperator(email, password, true)
			if err != nil {
				c.Err(err)
				return
			}
			if err := ENV.DB.Save(op); err != nil {
				c.Err(err)
				return
			}

			c.Println("Superuser created")
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name:      "move",
		Completer: verbNames,
		Help:      "move <verb> [steps] [hold]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(errors.New("usage: move <verb> [steps] [hold]"))
				return
			}

			var steps interface{} = 1
			if len(c.Args) >= 2 {
				steps = c.Args[1]
			}
			hold := len(c.Args) >= 3 && c.Args[2] == "hold"

			cmd, err := g.Scheduler.Enqueue(onboard.Verb(c.Args[0]), steps, hold)
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("Queued %s x%d (%s)\n", cmd.Kind, cmd.Steps, cmd.ID)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "stop",
		Help: "stop immediately, dropping anything queued",
		Func: func(c *ishell.Context) {
			g.Scheduler.RequestStop()
			c.Println("Stop requested")
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "halt",
		Help: "queue a stop in stance behind the current commands",
		Func: func(c *ishell.Context) {
			if _, err := g.Scheduler.EnqueueKind(motion.KindStop, 1, true); err != nil {
				c.Err(err)
			}
		},
	})

	for _, kind := range []motion.Kind{motion.KindCenter, motion.KindAllOff} {
		kind := kind
		shell.AddCmd(&ishell.Cmd{
			Name: string(kind),
			Help: "abort and replace the queue with " + string(kind),
			Func: func(c *ishell.Context) {
				if _, err := g.Scheduler.Preempt(kind); err != nil {
					c.Err(err)
				}
			},
		})
	}

	shell.AddCmd(&ishell.Cmd{
		Name: "status",
		Help: "print the scheduler and diagnostics status",
		Func: func(c *ishell.Context) {
			out, err := json.MarshalIndent(g.StatusPayload(), "", "  ")
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(string(out))
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "history",
		Help: "history [n]",
		Func: func(c *ishell.Context) {
			limit := HISTORY_DEFAULT
			if len(c.Args) >= 1 {
				n, err := strconv.Atoi(c.Args[0])
				if err != nil {
					c.Err(err)
					return
				}
				limit = n
			}

			entries, err := g.Journal.Recent(limit)
			if err != nil {
				c.Err(err)
				return
			}
			for _, e := range entries {
				c.Printf("%s %-14s %2d/%-2d aborted=%-5v %s\n",
					e.StartedAt.Format("15:04:05.000"), e.Cmd, e.StepsDone, e.Steps, e.Aborted, e.Error)
			}
		},
	})

	return shell
}
