package migration

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
)

// CLI 迁移命令的终端输出
type CLI struct {
	migrator Migrator
	out      io.Writer
}

// NewCLI 创建 CLI，默认输出到 stdout
func NewCLI(m Migrator) *CLI {
	return &CLI{migrator: m, out: os.Stdout}
}

// SetOutput 设置输出
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// Run dispatches a migrate subcommand: up, down, steps N, force N, version,
// status or info. No arguments means up.
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return c.RunUp(ctx)
	}
	switch args[0] {
	case "up":
		return c.RunUp(ctx)
	case "down":
		return c.RunDown(ctx)
	case "steps", "force":
		if len(args) < 2 {
			return fmt.Errorf("%s requires a number", args[0])
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%s: invalid number %q", args[0], args[1])
		}
		if args[0] == "steps" {
			return c.RunSteps(ctx, n)
		}
		return c.RunForce(ctx, n)
	case "version":
		return c.RunVersion(ctx)
	case "status":
		return c.RunStatus(ctx)
	case "info":
		return c.RunInfo(ctx)
	default:
		return fmt.Errorf("unknown migrate command %q", args[0])
	}
}

// RunUp 应用全部迁移
func (c *CLI) RunUp(ctx context.Context) error {
	fmt.Fprintln(c.out, "Running migrations...")
	if err := c.migrator.Up(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return c.printVersion(ctx, "Migrations complete.")
}

// RunDown 回滚一步
func (c *CLI) RunDown(ctx context.Context) error {
	fmt.Fprintln(c.out, "Rolling back last migration...")
	if err := c.migrator.Down(ctx); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return c.printVersion(ctx, "Rollback complete.")
}

// RunSteps 前进或回退 n 步
func (c *CLI) RunSteps(ctx context.Context, n int) error {
	if n >= 0 {
		fmt.Fprintf(c.out, "Applying %d migration(s)...\n", n)
	} else {
		fmt.Fprintf(c.out, "Rolling back %d migration(s)...\n", -n)
	}
	if err := c.migrator.Steps(ctx, n); err != nil {
		return fmt.Errorf("migration steps failed: %w", err)
	}
	return c.printVersion(ctx, "Complete.")
}

// RunForce 强制版本
func (c *CLI) RunForce(ctx context.Context, version int) error {
	if err := c.migrator.Force(ctx, version); err != nil {
		return fmt.Errorf("force failed: %w", err)
	}
	fmt.Fprintf(c.out, "Version forced to %d\n", version)
	return nil
}

// RunVersion 打印当前版本
func (c *CLI) RunVersion(ctx context.Context) error {
	version, dirty, err := c.migrator.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}
	if version == 0 {
		fmt.Fprintln(c.out, "No migrations applied yet.")
		return nil
	}
	suffix := ""
	if dirty {
		suffix = " (dirty)"
	}
	fmt.Fprintf(c.out, "Current version: %d%s\n", version, suffix)
	return nil
}

// RunStatus 表格形式列出迁移
func (c *CLI) RunStatus(ctx context.Context) error {
	statuses, err := c.migrator.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	if len(statuses) == 0 {
		fmt.Fprintln(c.out, "No migrations found.")
		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tSTATUS")
	applied := 0
	for _, s := range statuses {
		state := "Pending"
		switch {
		case s.Dirty:
			state = "Dirty"
		case s.Applied:
			state = "Applied"
		}
		if s.Applied {
			applied++
		}
		fmt.Fprintf(w, "%06d\t%s\t%s\n", s.Version, s.Name, state)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\nTotal: %d, Applied: %d, Pending: %d\n", len(statuses), applied, len(statuses)-applied)
	return nil
}

// RunInfo 打印摘要
func (c *CLI) RunInfo(ctx context.Context) error {
	info, err := c.migrator.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get info: %w", err)
	}
	fmt.Fprintln(c.out, "Migration Information:")
	fmt.Fprintf(c.out, "  Current Version:    %d\n", info.CurrentVersion)
	fmt.Fprintf(c.out, "  Dirty:              %v\n", info.Dirty)
	fmt.Fprintf(c.out, "  Total Migrations:   %d\n", info.TotalMigrations)
	fmt.Fprintf(c.out, "  Applied Migrations: %d\n", info.AppliedMigrations)
	fmt.Fprintf(c.out, "  Pending Migrations: %d\n", info.PendingMigrations)
	return nil
}

func (c *CLI) printVersion(ctx context.Context, prefix string) error {
	version, _, err := c.migrator.Version(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s Current version: %d\n", prefix, version)
	return nil
}
