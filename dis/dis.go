// Package dis supports analysis of compiled bytecode by disassembling
// it. It works with the opcodes defined in the op package and the
// immutable code blocks from the bytecode package.
package dis

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/juniper-lang/juniper/bytecode"
	"github.com/juniper-lang/juniper/op"
)

// Instruction represents a single bytecode instruction and its operands.
type Instruction struct {
	Offset     int
	Name       string
	Opcode     op.Code
	Operands   []op.Code
	Annotation string
	Constant   interface{}
}

// Disassemble returns a parsed representation of the given code block's
// instruction stream.
func Disassemble(code *bytecode.Code) ([]Instruction, error) {
	var instructions []Instruction
	offset := 0
	count := code.InstructionCount()
	for offset < count {
		opcode := code.InstructionAt(offset)
		info := op.GetInfo(opcode)
		if info.Name == "" {
			return nil, fmt.Errorf("unknown opcode %d at offset %d", opcode, offset)
		}
		operands := make([]op.Code, info.OperandCount)
		for i := 0; i < info.OperandCount; i++ {
			if offset+1+i >= count {
				return nil, fmt.Errorf("truncated instruction at offset %d", offset)
			}
			operands[i] = code.InstructionAt(offset + 1 + i)
		}

		var constant interface{}
		var annotation string
		switch opcode {
		case op.LoadFast, op.StoreFast:
			annotation = code.LocalNameAt(int(operands[0]))
		case op.LoadGlobal, op.StoreGlobal:
			annotation = code.GlobalNameAt(int(operands[0]))
		case op.LoadAttr, op.LoadAttrOrNil, op.StoreAttr, op.DeleteAttr,
			op.LoadName, op.LoadNameOrUndefined:
			annotation = code.NameAt(int(operands[0]))
		case op.BinaryOp:
			annotation = op.BinaryOpType(operands[0]).String()
		case op.CompareOp:
			annotation = op.CompareOpType(operands[0]).String()
		case op.LoadConst, op.LoadClosure:
			constant = code.ConstantAt(int(operands[0]))
			annotation = fmt.Sprintf("%v", constant)
		case op.JumpForward, op.PopJumpForwardIfFalse, op.PopJumpForwardIfTrue,
			op.PopJumpForwardIfNil, op.PopJumpForwardIfNotNil,
			op.PopJumpForwardIfNotUndefined, op.JumpForwardIfNil:
			annotation = fmt.Sprintf("to %d", offset+int(operands[0]))
		case op.JumpBackward:
			annotation = fmt.Sprintf("to %d", offset-int(operands[0]))
		}

		instructions = append(instructions, Instruction{
			Offset:     offset,
			Name:       info.Name,
			Opcode:     opcode,
			Operands:   operands,
			Annotation: annotation,
			Constant:   constant,
		})
		offset += 1 + info.OperandCount
	}
	return instructions, nil
}

// Print writes a human-readable listing of the instructions.
func Print(instructions []Instruction, writer io.Writer) {
	bold := color.New(color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	for _, instr := range instructions {
		operands := make([]string, len(instr.Operands))
		for i, operand := range instr.Operands {
			operands[i] = fmt.Sprintf("%d", operand)
		}
		line := fmt.Sprintf("%6d  %-32s %-12s", instr.Offset, bold(instr.Name), strings.Join(operands, " "))
		if instr.Annotation != "" {
			switch c := instr.Constant.(type) {
			case string:
				if len(c) > 80 {
					c = c[:77] + "..."
				}
				line += green(fmt.Sprintf("%q", c))
			case float64:
				line += yellow(instr.Annotation)
			case *bytecode.Function:
				name := c.Name()
				if name == "" {
					name = "(anonymous)"
				}
				line += faint("function " + name)
			default:
				line += faint(instr.Annotation)
			}
		}
		fmt.Fprintln(writer, line)
	}
}

// PrintCode disassembles and prints a code block and all of its nested
// function bodies.
func PrintCode(code *bytecode.Code, writer io.Writer) error {
	bold := color.New(color.Bold).SprintFunc()
	for _, block := range code.Flatten() {
		name := block.Name()
		if name == "" {
			if block.IsRoot() {
				name = "<main>"
			} else {
				name = "(anonymous)"
			}
		}
		fmt.Fprintf(writer, "%s:\n", bold(name))
		instructions, err := Disassemble(block)
		if err != nil {
			return err
		}
		Print(instructions, writer)
		fmt.Fprintln(writer)
	}
	return nil
}
