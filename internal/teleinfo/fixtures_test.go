package teleinfo

import "strings"

// Frame fixtures mirror real captures from both meter generations. The
// checksums are the genuine wire values.

var legacyLines = []string{
	"ADCO 031961098836 M",
	"OPTARIF BBR( S",
	"ISOUSC 45 ?",
	"BBRHCJB 001478389 E",
	"BBRHPJB 001012295 >",
	"BBRHCJW 000134553 G",
	"BBRHPJW 000213701 M",
	"BBRHCJR 000025098 E",
	"BBRHPJR 000006010 A",
	"PTEC HPJB P",
	"DEMAIN BLEU V",
	"IINST 001 X",
	"IMAX 060 E",
	"PAPP 00120 $",
	"HHPHC A ,",
	"MOTDETAT 000000 B",
}

var standardLines = []string{
	"ADSC\t041776199277\tI",
	"VTIC\t02\tJ",
	"DATE\tH200214230804\t\t;",
	"EASF01\t004855593\tI",
	"EASF06\t000706363\t@",
	"SINSTS1\t00664\tG",
	"SMAXSN3-1\tH200213085118\t03191\tK",
	"UMOY1\tH200214230000\t237\t(",
	"NTARF\t03\tP",
	"PRM\t07361794479930\tF",
	"MSG1\tPAS DE          MESSAGE         \t<",
	"NJOURF+1\t00\tB",
}

func frameOf(lines []string) string {
	var b strings.Builder
	b.WriteByte(stx)
	for _, l := range lines {
		b.WriteByte('\n')
		b.WriteString(l)
		b.WriteByte('\r')
	}
	b.WriteByte(etx)
	return b.String()
}

func legacyFrame() string   { return frameOf(legacyLines) }
func standardFrame() string { return frameOf(standardLines) }
