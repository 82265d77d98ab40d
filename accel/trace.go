package accel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
)

const LevelTrace slog.Level = slog.LevelInfo + 1

func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}

// StateTable renders a snapshot of the pipeline for debugging: the state of
// the three sequencers, the fill of the two ready queues, and the state of
// every staging bank.
func (c *Comp) StateTable() string {
	t := table.NewWriter()
	t.SetTitle("%s @ %.0f", c.Name(), c.Engine.CurrentTime()*1e9)

	t.AppendHeader(table.Row{"Unit", "State", "Detail"})

	numBlocks := 0
	if !c.csr.job.IsEmpty() {
		numBlocks = c.csr.job.NumBlocks()
	}
	t.AppendRow(table.Row{
		"Loader", c.loader.state.Name(),
		fmt.Sprintf("block %d/%d", c.loader.block, numBlocks),
	})
	t.AppendRow(table.Row{
		"Compute", c.compute.state.Name(),
		fmt.Sprintf("tile %s seg %d", c.compute.tile.String(), c.compute.seg),
	})
	t.AppendRow(table.Row{
		"Store", c.store.state.Name(),
		fmt.Sprintf("tile %d/%d row %d",
			c.store.tilesDone, c.store.totalTiles, c.store.row),
	})

	t.AppendSeparator()
	t.AppendRow(table.Row{
		"ReadyBlocks", fmt.Sprintf("%d/%d",
			c.sched.readyBlocks.Size(), c.sched.readyBlocks.Capacity()), "",
	})
	t.AppendRow(table.Row{
		"ReadyTiles", fmt.Sprintf("%d/%d",
			c.sched.readyTiles.Size(), c.sched.readyTiles.Capacity()), "",
	})

	t.AppendSeparator()
	for i := 0; i < 2; i++ {
		t.AppendRow(table.Row{
			fmt.Sprintf("BBuf[%d]", i), c.bBuf.BankState(i).Name(), "",
		})
	}
	for i := 0; i < 2; i++ {
		t.AppendRow(table.Row{
			fmt.Sprintf("CBuf[%d]", i), c.cBuf.BankState(i).Name(), "",
		})
	}

	return t.Render()
}
