package repl

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"orderdesk/internal/desk"
)

// renderStatus writes the snapshot as sectioned tables: pending orders
// grouped by tier, orders in service with their bot, the bot table, and the
// completed list in completion order.
func renderStatus(w io.Writer, s desk.Snapshot) {
	fmt.Fprintln(w, "== Pending / VIP ==")
	renderOrders(w, s.PendingVIP)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "== Pending / Normal ==")
	renderOrders(w, s.PendingNormal)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "== Processing ==")
	renderProcessing(w, s.Processing)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "== Bots ==")
	renderBots(w, s.Bots)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "== Complete (last %d) ==\n", len(s.Completed))
	renderCompleted(w, s.Completed)
}

func renderOrders(w io.Writer, orders []desk.OrderView) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "<empty>")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tType\tStatus")
	for _, o := range orders {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", o.ID, o.Priority, o.State)
	}
	_ = tw.Flush()
}

func renderProcessing(w io.Writer, orders []desk.OrderView) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "<empty>")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tType\tBot")
	for _, o := range orders {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", o.ID, o.Priority, o.Bot)
	}
	_ = tw.Flush()
}

func renderBots(w io.Writer, bots []desk.BotView) {
	if len(bots) == 0 {
		fmt.Fprintln(w, "<none>")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BotID\tState\tCurrentOrder")
	for _, b := range bots {
		cur := "-"
		if b.Order != 0 {
			cur = strconv.FormatInt(b.Order, 10)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", b.ID, b.State, cur)
	}
	_ = tw.Flush()
}

func renderCompleted(w io.Writer, orders []desk.OrderView) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "<none>")
		return
	}
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = strconv.FormatInt(o.ID, 10)
	}
	fmt.Fprintln(w, strings.Join(ids, ", "))
}
