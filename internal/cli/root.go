package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/andrejsk/taskvault/internal/common"
	"github.com/andrejsk/taskvault/internal/models"
)

func (a *App) getStatus() string {
	if a.currentUser == nil {
		return ""
	}
	return fmt.Sprintf("(%s)", a.currentUser.Username)
}

func (a *App) Root(ctx context.Context) {
	fmt.Println("Welcome to TaskVault (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("tv %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Println("Available commands: list, add, show, update, done, share, logout, exit")
			} else {
				fmt.Println("Available commands: register, login, exit")
			}

		case "register":
			a.Register(ctx)

		case "login":
			a.Login(ctx)

		case "logout":
			a.currentUser = nil
			fmt.Println("Logged out")

		case "list":
			a.List(ctx)

		case "add":
			a.Add(ctx)

		case "show":
			a.Show(ctx, args)

		case "update":
			a.UpdateDetails(ctx, args)

		case "done":
			a.Done(ctx, args)

		case "share":
			a.Share(ctx, args)

		case "exit":
			return

		default:
			fmt.Println("Unknown command (type 'help' for commands)")
		}
	}
}

func (a *App) Register(ctx context.Context) {
	username, err := GetSimpleText(a.reader, "Choose a username", os.Stdout)
	if err != nil {
		fmt.Println(message(err))
		return
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		fmt.Println(message(err))
		return
	}
	defer common.WipeByteArray(password)

	if _, err := a.authService.Register(ctx, username, string(password)); err != nil {
		fmt.Println(message(err))
		return
	}
	fmt.Println("User registered successfully, you can log in now")
}

func (a *App) Login(ctx context.Context) {
	username, err := GetSimpleText(a.reader, "Username", os.Stdout)
	if err != nil {
		fmt.Println(message(err))
		return
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		fmt.Println(message(err))
		return
	}
	defer common.WipeByteArray(password)

	user, err := a.authService.Login(ctx, username, string(password))
	if err != nil {
		fmt.Println(message(err))
		return
	}
	a.currentUser = user
	fmt.Printf("Welcome, %s\n", user.Username)
}

func (a *App) requireLogin() bool {
	if !a.isLoggedIn() {
		fmt.Println("Please log in first")
		return false
	}
	return true
}

func parseTaskID(args []string) (int64, bool) {
	if len(args) < 1 {
		fmt.Println("Task id required")
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Println("Invalid task id")
		return 0, false
	}
	return id, true
}

func (a *App) List(ctx context.Context) {
	if !a.requireLogin() {
		return
	}
	tasks, err := a.taskService.ListForUser(ctx, a.currentUser.ID)
	if err != nil {
		fmt.Println(message(err))
		return
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks yet")
		return
	}
	for _, task := range tasks {
		printTask(&task)
	}
}

func (a *App) Add(ctx context.Context) {
	if !a.requireLogin() {
		return
	}
	title, err := GetSimpleText(a.reader, "Title", os.Stdout)
	if err != nil {
		fmt.Println(message(err))
		return
	}
	details, err := GetSimpleText(a.reader, "Details", os.Stdout)
	if err != nil {
		fmt.Println(message(err))
		return
	}

	taskID, err := a.taskService.Create(ctx, title, details, a.currentUser.ID, nil)
	if err != nil {
		fmt.Println(message(err))
		return
	}
	fmt.Printf("Task %d created\n", taskID)
}

func (a *App) Show(ctx context.Context, args []string) {
	if !a.requireLogin() {
		return
	}
	taskID, ok := parseTaskID(args)
	if !ok {
		return
	}
	task, err := a.taskService.Read(ctx, taskID, a.currentUser.ID)
	if err != nil {
		fmt.Println(message(err))
		return
	}
	printTask(task)
}

func (a *App) UpdateDetails(ctx context.Context, args []string) {
	if !a.requireLogin() {
		return
	}
	taskID, ok := parseTaskID(args)
	if !ok {
		return
	}
	details, err := GetSimpleText(a.reader, "New details", os.Stdout)
	if err != nil {
		fmt.Println(message(err))
		return
	}
	if err := a.taskService.Update(ctx, taskID, a.currentUser.ID, models.TaskUpdate{Details: &details}); err != nil {
		fmt.Println(message(err))
		return
	}
	fmt.Println("Task updated")
}

func (a *App) Done(ctx context.Context, args []string) {
	if !a.requireLogin() {
		return
	}
	taskID, ok := parseTaskID(args)
	if !ok {
		return
	}
	done := true
	if err := a.taskService.Update(ctx, taskID, a.currentUser.ID, models.TaskUpdate{IsComplete: &done}); err != nil {
		fmt.Println(message(err))
		return
	}
	fmt.Println("Task marked as complete")
}

func (a *App) Share(ctx context.Context, args []string) {
	if !a.requireLogin() {
		return
	}
	if len(args) < 2 {
		fmt.Println("Usage: share <task_id> <user_id>")
		return
	}
	taskID, ok := parseTaskID(args[:1])
	if !ok {
		return
	}
	targetID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		fmt.Println("Invalid user id")
		return
	}
	if err := a.taskService.Share(ctx, taskID, a.currentUser.ID, targetID); err != nil {
		fmt.Println(message(err))
		return
	}
	fmt.Println("Task shared")
}

func printTask(task *models.TaskView) {
	status := " "
	if task.IsComplete {
		status = "x"
	}
	fmt.Printf("[%s] #%d %s\n", status, task.ID, task.Title)
	if task.Details != "" {
		fmt.Printf("    %s\n", task.Details)
	}
	fmt.Printf("    created by %d at %s, updated by %d at %s\n",
		task.CreatedBy, task.CreatedAt, task.UpdatedBy, task.UpdatedAt)
}
