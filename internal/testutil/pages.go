package testutil

// TOCPageLines is the text of a typical English contents page.
func TOCPageLines() []string {
	return []string{
		"TABLE OF CONTENTS",
		"",
		"1 Introduction ................. 1",
		"2 Getting Started .............. 7",
		"  2.1 Installation ............. 9",
		"  2.2 First Steps .............. 14",
		"3 Configuration ................ 21",
		"4 Advanced Topics .............. 35",
		"5 Troubleshooting .............. 52",
		"Index .......................... 60",
	}
}

// RussianTOCPageLines is the text of a Russian contents page.
func RussianTOCPageLines() []string {
	return []string{
		"Содержание",
		"Введение ........................ 3",
		"Глава 1. Основы ................. 5",
		"Глава 2. Методы ................. 18",
		"Глава 3. Результаты ............. 41",
		"Заключение ...................... 77",
		"Список литературы ............... 80",
	}
}

// RegularPageLines is the text of an ordinary body page.
func RegularPageLines() []string {
	return []string{
		"Chapter 2",
		"",
		"The installer places the binaries in the directory you",
		"choose and writes a configuration file next to them.",
		"Before running it, make sure the target directory is",
		"writable and that no previous version is still running.",
		"Most users will not need to change any of the defaults,",
		"but the following sections explain each of them.",
	}
}
