// Command rv32i loads a hex-image into the simulator and runs it to
// completion, printing one trace line per retired instruction.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/rv32i/rv32isim/pkg/cpu"
	"github.com/rv32i/rv32isim/pkg/image"
	"github.com/rv32i/rv32isim/pkg/memory"
)

const separator = "--------------------------------------------------------------------------------"

func main() {
	log.SetFlags(0)

	root := &cobra.Command{
		Use:           "rv32i <input-image> [output-trace]",
		Short:         "Fetch-decode-execute RV32I simulator",
		Args:          cobra.RangeArgs(1, 2),
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func run(cmd *cobra.Command, args []string) error {
	fmt.Println(separator)
	for i, a := range os.Args {
		fmt.Printf("argv[%d] = %s\n", i, a)
	}

	in, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("rv32i: %w", err)
	}
	defer in.Close()

	sinks := []io.Writer{os.Stdout}
	if len(args) == 2 {
		out, err := os.Create(args[1])
		if err != nil {
			return fmt.Errorf("rv32i: %w", err)
		}
		defer out.Close()
		sinks = append(sinks, out)
	}

	mem := memory.New()
	if err := image.Load(in, mem, os.Stdout); err != nil {
		return fmt.Errorf("rv32i: %w", err)
	}

	fmt.Println(separator)

	machine := cpu.New(mem)
	driver := cpu.NewDriver(machine, sinks...)
	runErr := driver.Run()

	fmt.Println(separator)

	// Returning (rather than os.Exit-ing) here lets the deferred Close
	// calls above run whether the machine halted cleanly or hit an
	// unknown opcode.
	return runErr
}
